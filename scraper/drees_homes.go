package scraper

import (
	"context"
	"fmt"
	"log"

	"github.com/PuerkitoBio/goquery"
	"housetracker/browser"
	"housetracker/config"
	"housetracker/models"
)

const (
	dreesBuilder       = "Drees Homes"
	homeCardsSelector  = "div.home-cards"
	homeCardSelector   = ".HomeCard"
	featureSelectorFmt = ".neighborhood-feature.%s"
)

// DreesHomesHandler scrapes the floor plan cards of a Drees custom-homes
// community page.
type DreesHomesHandler struct {
	site    *config.SiteConfig
	session *browser.Session
}

func NewDreesHomesHandler(site *config.SiteConfig, session *browser.Session) *DreesHomesHandler {
	return &DreesHomesHandler{site: site, session: session}
}

func (h *DreesHomesHandler) ID() string {
	return h.site.ID
}

func (h *DreesHomesHandler) Scrape(ctx context.Context, startURL string) ([]models.HouseInfo, error) {
	return h.ScrapeCommunity(ctx, startURL, h.site.Community)
}

// ScrapeCommunity scrapes one community page and tags every house with community.
func (h *DreesHomesHandler) ScrapeCommunity(ctx context.Context, pageURL, community string) ([]models.HouseInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := h.session.NewPage()
	if err != nil {
		return nil, err
	}
	defer closePage(page)

	if err := gotoPage(page, pageURL); err != nil {
		return nil, err
	}

	cards := page.Locator(homeCardsSelector).First()
	if err := cards.WaitFor(); err != nil {
		return nil, fmt.Errorf("wait for %s: %w", homeCardsSelector, err)
	}
	fragment, err := cards.InnerHTML()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", homeCardsSelector, err)
	}

	houses, err := parseHomeCards(fragment, pageURL, community)
	if err != nil {
		return nil, err
	}
	log.Printf("%s: %d floor plans at %s", h.site.Name, len(houses), pageURL)
	return houses, nil
}

// parseHomeCards reads the children of div.home-cards. A card whose fields
// cannot be parsed is logged and skipped.
func parseHomeCards(fragment, pageURL, community string) ([]models.HouseInfo, error) {
	doc, err := parseFragment(fragment)
	if err != nil {
		return nil, err
	}

	var houses []models.HouseInfo
	doc.Find(homeCardSelector).Each(func(i int, card *goquery.Selection) {
		house, err := parseHomeCard(card, pageURL)
		if err != nil {
			log.Printf("Skipping home card %d: %v", i, err)
			return
		}
		house.Community = community
		houses = append(houses, *house)
	})
	return houses, nil
}

func parseHomeCard(card *goquery.Selection, pageURL string) (*models.HouseInfo, error) {
	title := card.Find(".name-price").First()
	link := title.Find("a").First()
	name := ownText(link)
	if name == "" {
		return nil, fmt.Errorf("missing floor plan name")
	}
	price := ownText(title.Find(".price").First().Find("span").First())

	sqft := feature(card, "sqftr")
	if card.Find(fmt.Sprintf(featureSelectorFmt, "sqftr")).Length() == 0 {
		sqft = feature(card, "sqft")
	}
	halfBaths := "0"
	if card.Find(fmt.Sprintf(featureSelectorFmt, "h_baths")).Length() > 0 {
		halfBaths = feature(card, "h_baths")
	}

	house := models.NewHouseInfo(name)
	house.Builder = dreesBuilder
	house.URL = pageURL
	if href, ok := link.Attr("href"); ok && href != "" {
		if resolved, err := resolveLink(pageURL, href); err == nil {
			house.URL = resolved
		}
	}

	setters := []func() error{
		func() error { return house.SetBedrooms(feature(card, "bdrooms"), "Bedrooms: ") },
		func() error { return house.SetGarage(feature(card, "garage"), "Garage: ", "-car") },
		func() error { return house.SetPrice(price) },
		func() error { return house.SetFullBaths(feature(card, "f_baths"), "Full Baths: ") },
		func() error { return house.SetHalfBaths(halfBaths, "Half Baths: ") },
		func() error { return house.SetStories(feature(card, "stories"), "Stories: ") },
		func() error { return house.SetLotSize(sqft, "Square Feet: ") },
	}
	for _, set := range setters {
		if err := set(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	return house, nil
}

func feature(card *goquery.Selection, class string) string {
	return ownText(card.Find(fmt.Sprintf(featureSelectorFmt, class)).First())
}
