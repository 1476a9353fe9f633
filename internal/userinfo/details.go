package userinfo

import (
	"strings"

	"github.com/fruitsalade/fruitsalade/mobile/pkg/models"
)

// DetailItem is one row of the profile detail list.
type DetailItem struct {
	Icon        string
	Text        string
	Description string
}

// Details builds the detail rows shown for a profile, skipping empty fields.
// Rows appear in the order phone, email, address, website, twitter.
func Details(info *models.UserInfo) []DetailItem {
	if info == nil {
		return nil
	}

	var items []DetailItem
	add := func(icon, text, description string) {
		if text != "" {
			items = append(items, DetailItem{Icon: icon, Text: text, Description: description})
		}
	}
	add("ic_phone", info.Phone, "Phone number")
	add("ic_email", info.Email, "Email")
	add("ic_map_marker", info.Address, "Address")
	add("ic_web", BeautifyURL(info.Website), "Website")
	add("ic_twitter", BeautifyTwitterHandle(info.Twitter), "Twitter")
	return items
}

// HasDetails reports whether any detail field of info is set.
func HasDetails(info *models.UserInfo) bool {
	return len(Details(info)) > 0
}

// BeautifyURL strips the scheme from a web address for display.
func BeautifyURL(url string) string {
	url = strings.TrimSpace(url)
	for _, scheme := range []string{"https://", "http://"} {
		if len(url) >= len(scheme) && strings.EqualFold(url[:len(scheme)], scheme) {
			return strings.TrimSpace(url[len(scheme):])
		}
	}
	return url
}

// BeautifyTwitterHandle normalises a handle to the "@name" form.
func BeautifyTwitterHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	if handle == "" || strings.HasPrefix(handle, "@") {
		return handle
	}
	return "@" + handle
}
