package service

import (
	"regexp"

	"github.com/qloteam/Qloset-sub000/internal/geofence"
	"github.com/qloteam/Qloset-sub000/internal/util"

	"go.uber.org/zap"
)

var pincodeRe = regexp.MustCompile(`^[0-9]{6}$`)

// Admission decides whether a delivery address is serviceable. It is
// built once at startup from the configured geofence and pincode
// allow-list and injected into the order service.
type Admission struct {
	area   *geofence.ServiceArea
	allow  map[string]struct{}
	logger *zap.Logger
}

func NewAdmission(area *geofence.ServiceArea, allowList []string) *Admission {
	allow := make(map[string]struct{}, len(allowList))
	for _, pin := range allowList {
		allow[pin] = struct{}{}
	}
	return &Admission{
		area:   area,
		allow:  allow,
		logger: util.GetLogger(),
	}
}

// Check validates the address against the service area. Coordinates,
// when present, decide admission through the geofence exclusively;
// otherwise the 6-digit pincode is matched against the allow-list. An
// empty allow-list admits any well-formed pincode.
func (a *Admission) Check(addr *AddressInput) error {
	if addr.Lat != nil && addr.Lng != nil {
		if !a.insideArea(*addr.Lat, *addr.Lng) {
			util.AdmissionRejectedTotal.WithLabelValues("geofence").Inc()
			return ErrOutsideServiceArea
		}
		return nil
	}

	if !pincodeRe.MatchString(addr.Pincode) {
		util.AdmissionRejectedTotal.WithLabelValues("pincode_format").Inc()
		return ErrBadPincode
	}
	if len(a.allow) == 0 {
		return nil
	}
	if _, ok := a.allow[addr.Pincode]; !ok {
		util.AdmissionRejectedTotal.WithLabelValues("pincode").Inc()
		return ErrOutsideServiceArea
	}
	return nil
}

// insideArea never lets a geometry fault escape: any panic during
// evaluation is logged and counted as outside.
func (a *Admission) insideArea(lat, lng float64) (inside bool) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Geofence evaluation panicked", zap.Any("cause", r))
			inside = false
		}
	}()
	return a.area.Contains(lat, lng)
}
