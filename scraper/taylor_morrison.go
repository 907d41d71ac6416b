package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"housetracker/browser"
	"housetracker/config"
	"housetracker/models"
)

const (
	tmBuilder             = "Taylor Morrison"
	statePickerSelector   = "text=SELECT A STATE"
	searchHomesSelector   = "text=Search Homes"
	communityCardSelector = "div.search-page-community-card"
	communityColSelector  = ".search-page-community-card__community-group-card-content-col"
	galleryBoxSelector    = "div#slickA"
	galleryItemSelector   = ".community-gallery__info-box"
	defaultState          = "Texas"
	galleryWaitMS         = 10000
)

// TaylorMorrisonHandler walks the state search: pick a state, list its
// communities, then read the floor plan gallery of each community page.
type TaylorMorrisonHandler struct {
	site    *config.SiteConfig
	session *browser.Session
}

func NewTaylorMorrisonHandler(site *config.SiteConfig, session *browser.Session) *TaylorMorrisonHandler {
	return &TaylorMorrisonHandler{site: site, session: session}
}

func (h *TaylorMorrisonHandler) ID() string {
	return h.site.ID
}

func (h *TaylorMorrisonHandler) state() string {
	if h.site.State != "" {
		return h.site.State
	}
	return defaultState
}

func (h *TaylorMorrisonHandler) Scrape(ctx context.Context, startURL string) ([]models.HouseInfo, error) {
	communities, err := h.ScrapeCommunities(ctx, startURL)
	if err != nil {
		return nil, err
	}

	var houses []models.HouseInfo
	for _, c := range communities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.DetailLink == "" {
			log.Printf("Community %s has no detail link, skipping", c.Name)
			continue
		}

		detailURL, err := resolveLink(startURL, c.DetailLink)
		if err != nil {
			return nil, err
		}

		plans, err := h.ScrapeCommunityDetail(ctx, detailURL, c)
		if err != nil {
			return nil, fmt.Errorf("community %s: %w", c.Name, err)
		}
		log.Printf("%s, %s: %d floor plans", c.Name, c.City, len(plans))
		houses = append(houses, plans...)
	}

	return houses, nil
}

// ScrapeCommunities runs the state search from the home page and returns
// every community card in the results.
func (h *TaylorMorrisonHandler) ScrapeCommunities(ctx context.Context, startURL string) ([]models.Community, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := h.session.NewPage()
	if err != nil {
		return nil, err
	}
	defer closePage(page)

	if err := gotoPage(page, startURL); err != nil {
		return nil, err
	}
	dismissPromo(page)

	if err := page.Locator(statePickerSelector).Click(); err != nil {
		return nil, fmt.Errorf("open state picker: %w", err)
	}
	if err := page.Locator("text=" + h.state()).Last().Click(); err != nil {
		return nil, fmt.Errorf("select state %s: %w", h.state(), err)
	}
	if err := page.Locator(searchHomesSelector).Last().Click(); err != nil {
		return nil, fmt.Errorf("search homes: %w", err)
	}

	if err := page.Locator(communityCardSelector).First().WaitFor(); err != nil {
		return nil, fmt.Errorf("wait for community cards: %w", err)
	}
	content, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("read results page: %w", err)
	}

	communities, err := parseCommunityCards(content)
	if err != nil {
		return nil, err
	}
	log.Printf("%s: %d communities in %s", h.site.Name, len(communities), h.state())
	return communities, nil
}

// ScrapeCommunityDetail reads the floor plan gallery of one community page.
// A community without a gallery yields no houses.
func (h *TaylorMorrisonHandler) ScrapeCommunityDetail(ctx context.Context, detailURL string, c models.Community) ([]models.HouseInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := h.session.NewPage()
	if err != nil {
		return nil, err
	}
	defer closePage(page)

	if err := gotoPage(page, detailURL); err != nil {
		return nil, err
	}
	dismissPromo(page)

	gallery := page.Locator(galleryBoxSelector).First()
	present, err := waitOptional(gallery, galleryWaitMS)
	if err != nil {
		return nil, fmt.Errorf("wait for gallery: %w", err)
	}
	if !present {
		log.Printf("No floor plan gallery at %s", detailURL)
		return nil, nil
	}
	fragment, err := gallery.InnerHTML()
	if err != nil {
		return nil, fmt.Errorf("read gallery: %w", err)
	}

	return parseFloorPlanGallery(fragment, detailURL, c)
}

func parseCommunityCards(content string) ([]models.Community, error) {
	doc, err := parseFragment(content)
	if err != nil {
		return nil, err
	}

	var communities []models.Community
	doc.Find(communityCardSelector).Find("div.container").Each(func(_ int, group *goquery.Selection) {
		cols := group.Find(communityColSelector)
		if cols.Length() == 0 {
			return
		}

		paragraphs := group.Find("p")
		groupName := ownText(group.Find("h4").Last())
		city := ownText(paragraphs.Eq(0))
		count := ownText(paragraphs.Eq(1))
		log.Printf("%s, %s, %s", groupName, city, count)

		cols.First().Parent().Children().Each(func(_ int, card *goquery.Selection) {
			name := ownText(card.Find(".community-card__description-community-name"))
			if name == "" {
				return
			}
			link, _ := card.Find(".community-card__community-detail-link").First().Attr("href")
			communities = append(communities, models.Community{
				Group:      groupName,
				City:       city,
				GroupCount: count,
				Name:       name,
				Status:     models.ParseCommunityStatus(ownText(card.Find(".community-card__description-community-status"))),
				PriceText:  ownText(card.Find(".community-card__community-details-price")),
				SqFtText:   ownText(card.Find(".community-card__community-details-figure")),
				DetailLink: link,
			})
		})
	})
	return communities, nil
}

func parseFloorPlanGallery(fragment, detailURL string, c models.Community) ([]models.HouseInfo, error) {
	doc, err := parseFragment(fragment)
	if err != nil {
		return nil, err
	}

	var houses []models.HouseInfo
	doc.Find(galleryItemSelector).Each(func(_ int, box *goquery.Selection) {
		name := fullText(box.Find(".community-gallery__item-title"))
		if name == "" {
			return
		}

		house := models.NewHouseInfo(name)
		house.Builder = tmBuilder
		house.Community = c.Name
		house.City = c.City
		house.Status = c.Status
		house.URL = detailURL
		if href, ok := box.Find("a").First().Attr("href"); ok && href != "" {
			if resolved, err := resolveLink(detailURL, href); err == nil {
				house.URL = resolved
			}
		}

		if price := fullText(box.Find(".community-gallery__item-price")); price != "" {
			if err := house.SetPrice(strings.TrimSpace(strings.TrimPrefix(price, "From"))); err != nil {
				log.Printf("%s: %v", name, err)
			}
		}
		box.Find(".community-gallery__item-details li").Each(func(_ int, li *goquery.Selection) {
			if err := applyFeature(house, fullText(li)); err != nil {
				log.Printf("%s: %v", name, err)
			}
		})

		houses = append(houses, *house)
	})
	return houses, nil
}

// applyFeature sets the field named by a gallery detail such as
// "3 - 4 Beds", "2.5 Baths", "1 Half Bath", "2 Car Garage" or "2,360 Sq. Ft.".
func applyFeature(house *models.HouseInfo, text string) error {
	lower := strings.ToLower(text)
	value := leadingValue(text)

	switch {
	case strings.Contains(lower, "half bath"):
		return house.SetHalfBaths(value, "")
	case strings.Contains(lower, "bath"):
		return house.SetFullBaths(value, "")
	case strings.Contains(lower, "bed"):
		return house.SetBedrooms(value, "")
	case strings.Contains(lower, "stories"), strings.Contains(lower, "story"):
		return house.SetStories(value, "")
	case strings.Contains(lower, "garage"), strings.Contains(lower, "car"):
		return house.SetGarage(value, "", "")
	case strings.Contains(lower, "acre"):
		house.IsAcreage = true
		return nil
	case strings.Contains(lower, "sq"):
		return house.SetLotSize(value, "")
	}
	return nil
}
