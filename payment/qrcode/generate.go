package qrcode

import (
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"
)

const DefaultSize = 256

// ApproveLinkPNG renders the approval link of a payment as PNG so donors can
// continue the checkout on their phone.
func ApproveLinkPNG(approveURL string, size int) ([]byte, error) {
	u, err := url.Parse(approveURL)
	if err != nil || u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("approve link %q is not a web url", approveURL)
	}
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(u.String(), qrcode.Medium, size)
}
