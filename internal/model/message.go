package model

import (
	"math"
	"strconv"
)

// DeviceMessage is the metrics summary shown on the watch. Fractional values
// travel as decimal strings.
type DeviceMessage struct {
	AppName      string
	ResponseTime string
	Throughput   int32
	ErrorRate    string
	ApdexScore   string
}

// IdleDeviceMessage is sent for an application that reports no data.
func IdleDeviceMessage(appName string) DeviceMessage {
	return DeviceMessage{
		AppName:      appName,
		ResponseTime: "0",
		Throughput:   0,
		ErrorRate:    "0",
		ApdexScore:   "0.00",
	}
}

func (m DeviceMessage) Payload() Payload {
	return Payload{
		KeyAppName:      m.AppName,
		KeyResponseTime: m.ResponseTime,
		KeyThroughput:   m.Throughput,
		KeyErrorRate:    m.ErrorRate,
		KeyApdexScore:   m.ApdexScore,
	}
}

type UpdateFreqMessage struct {
	Minutes int
}

func (m UpdateFreqMessage) Payload() Payload {
	return Payload{KeyUpdateFreq: m.Minutes}
}

// Decimal renders v in its shortest exact decimal form without an exponent.
func Decimal(v float64) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Fixed2 renders v with exactly two decimal places.
func Fixed2(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00"
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if s == "-0.00" {
		return "0.00"
	}
	return s
}

// Int32 truncates v toward zero, clamping to the int32 range.
func Int32(v float64) int32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(v)
	}
}
