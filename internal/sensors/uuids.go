package sensors

import "github.com/srg/gattsense/internal/gatt"

// Service and characteristic UUIDs. Within a service the characteristic
// UUIDs differ from the service UUID only in the first group.
var (
	HealthServiceUUID    = gatt.MustParseUUID("d973f2e0-b19e-11e2-9e96-0800200c9a66")
	HealthBPMCharUUID    = gatt.MustParseUUID("d973f2e1-b19e-11e2-9e96-0800200c9a66")
	HealthWeightCharUUID = gatt.MustParseUUID("d973f2e2-b19e-11e2-9e96-0800200c9a66")

	WeatherServiceUUID  = gatt.MustParseUUID("d973f200-b19e-11e2-9e96-0800200c9a67")
	WeatherTempCharUUID = gatt.MustParseUUID("d973f201-b19e-11e2-9e96-0800200c9a67")
	WeatherHumCharUUID  = gatt.MustParseUUID("d973f202-b19e-11e2-9e96-0800200c9a67")
)
