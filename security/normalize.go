package security

import (
	"fmt"
	"math"
	"strconv"
)

// NormalizeAndroid maps an Android WifiInfo.SECURITY_TYPE_* constant to its
// canonical type. OPEN, WEP, PSK, SAE, EAP and EAP_WPA3_ENTERPRISE are
// recognised; every other constant is Unknown.
func NormalizeAndroid(code int) SecurityType {
	return lookup(PlatformAndroid, strconv.Itoa(code))
}

// NormalizeIOS maps an iOS hotspot security case name to its canonical type.
func NormalizeIOS(code string) SecurityType {
	return lookup(PlatformIOS, code)
}

// Normalize maps an opaque native security code to its canonical type.
//
// A nil code means there is no active Wi-Fi network. Integers (including
// integral floats, as produced by JSON decoding) and strings are looked up in
// the platform's table. Anything else, or any platform without a table,
// yields Unknown. Normalize never panics.
func Normalize(platform Platform, code any) SecurityType {
	switch v := code.(type) {
	case nil:
		return Unknown
	case SecurityType:
		if v.Valid() {
			return v
		}
		return Unknown
	case string:
		return lookup(platform, v)
	case int:
		return lookup(platform, strconv.Itoa(v))
	case int32:
		return lookup(platform, strconv.FormatInt(int64(v), 10))
	case int64:
		return lookup(platform, strconv.FormatInt(v, 10))
	case uint:
		return lookup(platform, strconv.FormatUint(uint64(v), 10))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return Unknown
		}
		return lookup(platform, strconv.FormatInt(int64(v), 10))
	case fmt.Stringer:
		return lookup(platform, v.String())
	}
	return Unknown
}

// Capture reads a native code with read and normalizes it. Errors returned by
// read and panics raised inside it both classify as Unknown.
func Capture(platform Platform, read func() (any, error)) (st SecurityType) {
	defer func() {
		if r := recover(); r != nil {
			st = Unknown
		}
	}()

	if read == nil {
		return Unknown
	}

	code, err := read()
	if err != nil {
		return Unknown
	}
	return Normalize(platform, code)
}
