package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"housetracker/models"
)

var (
	nameReplacements = []struct{ full, abbrev string }{
		{"homes", "hm"},
		{"ranch", "rch"},
		{"village", "vlg"},
		{"estates", "est"},
		{"collection", "coll"},
		{"series", "ser"},
	}
	nonAlnumRegex = regexp.MustCompile(`[^a-z0-9\s]`)
)

// Fingerprint identifies a floor plan across runs: the same plan in the same
// community from the same builder always hashes to the same value.
func Fingerprint(house *models.HouseInfo) string {
	input := fmt.Sprintf("%s|%s|%s",
		NormalizeName(house.Builder),
		NormalizeName(house.Community),
		NormalizeName(house.FloorPlanName),
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = nonAlnumRegex.ReplaceAllString(name, " ")
	words := strings.Fields(name)
	for i, w := range words {
		for _, r := range nameReplacements {
			if w == r.full {
				words[i] = r.abbrev
				break
			}
		}
	}
	return strings.Join(words, " ")
}
