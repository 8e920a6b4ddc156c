package payment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformedReference = errors.New("malformed payment reference")

// Reference is stored as custom id at the payment provider so a captured
// payment can be matched to the donor it was meant for.
type Reference struct {
	SteamID   string
	DiscordID string
	PackageID int
}

func (r Reference) Encode() string {
	return r.SteamID + "#" + r.DiscordID + "#" + strconv.Itoa(r.PackageID)
}

func ParseReference(s string) (Reference, error) {
	parts := strings.Split(s, "#")
	if len(parts) != 3 {
		return Reference{}, fmt.Errorf("%w: %q", ErrMalformedReference, s)
	}
	id, err := strconv.Atoi(parts[2])
	if err != nil {
		return Reference{}, fmt.Errorf("%w: package id %q", ErrMalformedReference, parts[2])
	}
	return Reference{SteamID: parts[0], DiscordID: parts[1], PackageID: id}, nil
}
