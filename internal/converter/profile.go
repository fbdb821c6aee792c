package converter

import (
	"fmt"
	"strings"
)

// Profile is an e-reader device as KCC knows it
type Profile struct {
	Code   string
	Name   string
	Width  int
	Height int
}

// Profiles are the KCC device profiles, in KCC's order
var Profiles = []Profile{
	{"K1", "Kindle 1", 600, 670},
	{"K2", "Kindle 2", 600, 670},
	{"K34", "Kindle Keyboard/Touch", 600, 800},
	{"K578", "Kindle", 600, 800},
	{"KDX", "Kindle DX/DXG", 824, 1000},
	{"KPW", "Kindle Paperwhite 1/2", 758, 1024},
	{"KV", "Kindle Paperwhite 3/4/Voyage/Oasis", 1072, 1448},
	{"KO", "Kindle Oasis 2/3", 1264, 1680},
	{"KoMT", "Kobo Mini/Touch", 600, 800},
	{"KoG", "Kobo Glo", 768, 1024},
	{"KoGHD", "Kobo Glo HD", 1072, 1448},
	{"KoA", "Kobo Aura", 758, 1024},
	{"KoAHD", "Kobo Aura HD", 1080, 1440},
	{"KoAH2O", "Kobo Aura H2O", 1080, 1430},
	{"KoAO", "Kobo Aura ONE", 1404, 1872},
}

// DefaultProfileCode is the Kindle Paperwhite
const DefaultProfileCode = "KPW"

// DefaultProfile returns the Kindle Paperwhite profile
func DefaultProfile() Profile {
	p, _ := LookupProfile(DefaultProfileCode)
	return p
}

// LookupProfile finds a profile by code ignoring case. An empty code is
// the default profile.
func LookupProfile(code string) (Profile, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		code = DefaultProfileCode
	}
	for _, p := range Profiles {
		if strings.EqualFold(p.Code, code) {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("unknown profile %q (available: %s)", code, strings.Join(ProfileCodes(), ", "))
}

// ProfileCodes lists the profile codes
func ProfileCodes() []string {
	codes := make([]string, len(Profiles))
	for i, p := range Profiles {
		codes[i] = p.Code
	}
	return codes
}

func (p Profile) String() string {
	return fmt.Sprintf("%s (%s, %dx%d)", p.Code, p.Name, p.Width, p.Height)
}
