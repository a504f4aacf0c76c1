package service

import (
	"testing"

	"github.com/qloteam/Qloset-sub000/internal/geofence"

	"github.com/stretchr/testify/assert"
)

const chennaiSquare = `{
	"type": "Polygon",
	"coordinates": [[[80.0, 12.8], [80.4, 12.8], [80.4, 13.2], [80.0, 13.2], [80.0, 12.8]]]
}`

func ptr(f float64) *float64 { return &f }

func TestPincodeAllowList(t *testing.T) {
	adm := NewAdmission(geofence.Parse(nil), []string{"600017", "600018"})

	addr := &AddressInput{Line1: "x", Pincode: "600017"}
	assert.NoError(t, adm.Check(addr))

	addr.Pincode = "600019"
	assert.ErrorIs(t, adm.Check(addr), ErrOutsideServiceArea)

	addr.Pincode = "6000"
	assert.ErrorIs(t, adm.Check(addr), ErrBadPincode)

	addr.Pincode = "60001a"
	assert.ErrorIs(t, adm.Check(addr), ErrBadPincode)
}

func TestEmptyAllowListIsPermissive(t *testing.T) {
	adm := NewAdmission(geofence.Parse(nil), nil)

	addr := &AddressInput{Line1: "x", Pincode: "123456"}
	assert.NoError(t, adm.Check(addr))

	// a malformed pincode is still rejected
	addr.Pincode = "6000"
	assert.ErrorIs(t, adm.Check(addr), ErrBadPincode)
}

func TestCoordinatesDecideExclusively(t *testing.T) {
	adm := NewAdmission(geofence.Parse([]byte(chennaiSquare)), []string{"600017"})

	// inside the polygon passes even with a pincode outside the list
	inside := &AddressInput{Line1: "x", Pincode: "999999", Lat: ptr(13.0), Lng: ptr(80.2)}
	assert.NoError(t, adm.Check(inside))

	// outside the polygon fails even with an allow-listed pincode
	outside := &AddressInput{Line1: "x", Pincode: "600017", Lat: ptr(28.6), Lng: ptr(77.2)}
	assert.ErrorIs(t, adm.Check(outside), ErrOutsideServiceArea)
}

func TestEmptyGeofenceRejectsCoordinates(t *testing.T) {
	adm := NewAdmission(geofence.Parse([]byte(`{"bad json`)), nil)

	addr := &AddressInput{Line1: "x", Pincode: "600017", Lat: ptr(13.0), Lng: ptr(80.2)}
	assert.ErrorIs(t, adm.Check(addr), ErrOutsideServiceArea)
}
