package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"judokit/internal/core/ports"
)

// DefaultReferenceTrim is the number of trailing characters dropped from a
// generated payment reference.
const DefaultReferenceTrim = 4

var referenceStripper = strings.NewReplacer(":", "", "-", "", "+", "", " ", "")

// DeviceReferenceGenerator derives payment references from a device id and
// the current time.
type DeviceReferenceGenerator struct {
	deviceID string
	trim     int
	now      func() time.Time
}

// NewDeviceReferenceGenerator uses deviceID, or a random UUID when it is
// empty. trim < 0 selects DefaultReferenceTrim.
func NewDeviceReferenceGenerator(deviceID string, trim int) *DeviceReferenceGenerator {
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	if trim < 0 {
		trim = DefaultReferenceTrim
	}
	return &DeviceReferenceGenerator{deviceID: strings.ToUpper(deviceID), trim: trim, now: time.Now}
}

// PaymentReference returns device id + "2006-01-02 15:04:05 -0700" with
// punctuation and spaces removed and the last trim characters dropped.
func (g *DeviceReferenceGenerator) PaymentReference() string {
	raw := g.deviceID + g.now().UTC().Format("2006-01-02 15:04:05 -0700")
	s := referenceStripper.Replace(raw)
	if g.trim >= len(s) {
		return s
	}
	return s[:len(s)-g.trim]
}

// UUIDReferenceGenerator returns a fresh random UUID per reference.
type UUIDReferenceGenerator struct{}

func (UUIDReferenceGenerator) PaymentReference() string {
	return uuid.NewString()
}

// NewReferenceGenerator selects a generator by strategy name: "device" or
// "uuid". An empty strategy means "device".
func NewReferenceGenerator(strategy, deviceID string, trim int) (ports.ReferenceGenerator, error) {
	switch strategy {
	case "", "device":
		return NewDeviceReferenceGenerator(deviceID, trim), nil
	case "uuid":
		return UUIDReferenceGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown reference strategy %q", strategy)
	}
}
