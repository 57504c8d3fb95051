package platform

import "tinygo.org/x/drivers"

// rotationFor finds the driver rotation whose MADCTL bits equal the requested
// swap and mirror flags. Rotation 90 is MX|MV, 180 is MX|MY and 270 is MY|MV.
func rotationFor(swap, mx, my bool) (drivers.Rotation, bool) {
	switch {
	case !swap && !mx && !my:
		return drivers.Rotation0, true
	case swap && mx && !my:
		return drivers.Rotation90, true
	case !swap && mx && my:
		return drivers.Rotation180, true
	case swap && !mx && my:
		return drivers.Rotation270, true
	}
	return 0, false
}
