package response

import "time"

// Value returns the raw driver value.
func (r *Row) Value(index int) (any, bool) { return lookup(r, index, toValue) }
func (r *Row) ValueByLabel(label string) (any, bool) { return lookup(r, r.FindIndex(label), toValue) }
func (r *Row) NullableValue(index int) (any, error) { return get(r, index, toValue) }
func (r *Row) NullableValueByLabel(label string) (any, error) {
	return get(r, r.FindIndex(label), toValue)
}
func (r *Row) NextValue() (any, bool) { return lookup(r, r.NextIndex(), toValue) }

func (r *Row) String(index int) (string, bool) { return lookup(r, index, toString) }
func (r *Row) StringByLabel(label string) (string, bool) { return lookup(r, r.FindIndex(label), toString) }
func (r *Row) NullableString(index int) (string, error) { return get(r, index, toString) }
func (r *Row) NullableStringByLabel(label string) (string, error) {
	return get(r, r.FindIndex(label), toString)
}
func (r *Row) NextString() (string, bool) { return lookup(r, r.NextIndex(), toString) }

func (r *Row) Bool(index int) (bool, bool) { return lookup(r, index, toBool) }
func (r *Row) BoolByLabel(label string) (bool, bool) { return lookup(r, r.FindIndex(label), toBool) }
func (r *Row) NullableBool(index int) (bool, error) { return get(r, index, toBool) }
func (r *Row) NullableBoolByLabel(label string) (bool, error) {
	return get(r, r.FindIndex(label), toBool)
}
func (r *Row) NextBool() (bool, bool) { return lookup(r, r.NextIndex(), toBool) }

func (r *Row) Int64(index int) (int64, bool) { return lookup(r, index, toInt64) }
func (r *Row) Int64ByLabel(label string) (int64, bool) { return lookup(r, r.FindIndex(label), toInt64) }
func (r *Row) NullableInt64(index int) (int64, error) { return get(r, index, toInt64) }
func (r *Row) NullableInt64ByLabel(label string) (int64, error) {
	return get(r, r.FindIndex(label), toInt64)
}
func (r *Row) NextInt64() (int64, bool) { return lookup(r, r.NextIndex(), toInt64) }

func (r *Row) Int(index int) (int, bool) { return lookup(r, index, toInt) }
func (r *Row) IntByLabel(label string) (int, bool) { return lookup(r, r.FindIndex(label), toInt) }
func (r *Row) NullableInt(index int) (int, error) { return get(r, index, toInt) }
func (r *Row) NullableIntByLabel(label string) (int, error) {
	return get(r, r.FindIndex(label), toInt)
}
func (r *Row) NextInt() (int, bool) { return lookup(r, r.NextIndex(), toInt) }

func (r *Row) Int16(index int) (int16, bool) { return lookup(r, index, toInt16) }
func (r *Row) Int16ByLabel(label string) (int16, bool) { return lookup(r, r.FindIndex(label), toInt16) }
func (r *Row) NullableInt16(index int) (int16, error) { return get(r, index, toInt16) }
func (r *Row) NullableInt16ByLabel(label string) (int16, error) {
	return get(r, r.FindIndex(label), toInt16)
}
func (r *Row) NextInt16() (int16, bool) { return lookup(r, r.NextIndex(), toInt16) }

func (r *Row) Int8(index int) (int8, bool) { return lookup(r, index, toInt8) }
func (r *Row) Int8ByLabel(label string) (int8, bool) { return lookup(r, r.FindIndex(label), toInt8) }
func (r *Row) NullableInt8(index int) (int8, error) { return get(r, index, toInt8) }
func (r *Row) NullableInt8ByLabel(label string) (int8, error) {
	return get(r, r.FindIndex(label), toInt8)
}
func (r *Row) NextInt8() (int8, bool) { return lookup(r, r.NextIndex(), toInt8) }

func (r *Row) Float64(index int) (float64, bool) { return lookup(r, index, toFloat64) }
func (r *Row) Float64ByLabel(label string) (float64, bool) { return lookup(r, r.FindIndex(label), toFloat64) }
func (r *Row) NullableFloat64(index int) (float64, error) { return get(r, index, toFloat64) }
func (r *Row) NullableFloat64ByLabel(label string) (float64, error) {
	return get(r, r.FindIndex(label), toFloat64)
}
func (r *Row) NextFloat64() (float64, bool) { return lookup(r, r.NextIndex(), toFloat64) }

func (r *Row) Float32(index int) (float32, bool) { return lookup(r, index, toFloat32) }
func (r *Row) Float32ByLabel(label string) (float32, bool) { return lookup(r, r.FindIndex(label), toFloat32) }
func (r *Row) NullableFloat32(index int) (float32, error) { return get(r, index, toFloat32) }
func (r *Row) NullableFloat32ByLabel(label string) (float32, error) {
	return get(r, r.FindIndex(label), toFloat32)
}
func (r *Row) NextFloat32() (float32, bool) { return lookup(r, r.NextIndex(), toFloat32) }

// Date returns the calendar date, time of day cleared.
func (r *Row) Date(index int) (time.Time, bool) { return lookup(r, index, toDate) }
func (r *Row) DateByLabel(label string) (time.Time, bool) { return lookup(r, r.FindIndex(label), toDate) }
func (r *Row) NullableDate(index int) (time.Time, error) { return get(r, index, toDate) }
func (r *Row) NullableDateByLabel(label string) (time.Time, error) {
	return get(r, r.FindIndex(label), toDate)
}
func (r *Row) NextDate() (time.Time, bool) { return lookup(r, r.NextIndex(), toDate) }

// Clock returns the time of day on January 1 of year 0.
func (r *Row) Clock(index int) (time.Time, bool) { return lookup(r, index, toClock) }
func (r *Row) ClockByLabel(label string) (time.Time, bool) { return lookup(r, r.FindIndex(label), toClock) }
func (r *Row) NullableClock(index int) (time.Time, error) { return get(r, index, toClock) }
func (r *Row) NullableClockByLabel(label string) (time.Time, error) {
	return get(r, r.FindIndex(label), toClock)
}
func (r *Row) NextClock() (time.Time, bool) { return lookup(r, r.NextIndex(), toClock) }

func (r *Row) Timestamp(index int) (time.Time, bool) { return lookup(r, index, toTimestamp) }
func (r *Row) TimestampByLabel(label string) (time.Time, bool) { return lookup(r, r.FindIndex(label), toTimestamp) }
func (r *Row) NullableTimestamp(index int) (time.Time, error) { return get(r, index, toTimestamp) }
func (r *Row) NullableTimestampByLabel(label string) (time.Time, error) {
	return get(r, r.FindIndex(label), toTimestamp)
}
func (r *Row) NextTimestamp() (time.Time, bool) { return lookup(r, r.NextIndex(), toTimestamp) }

func (r *Row) Bytes(index int) ([]byte, bool) { return lookup(r, index, toBytes) }
func (r *Row) BytesByLabel(label string) ([]byte, bool) { return lookup(r, r.FindIndex(label), toBytes) }
func (r *Row) NullableBytes(index int) ([]byte, error) { return get(r, index, toBytes) }
func (r *Row) NullableBytesByLabel(label string) ([]byte, error) {
	return get(r, r.FindIndex(label), toBytes)
}
func (r *Row) NextBytes() ([]byte, bool) { return lookup(r, r.NextIndex(), toBytes) }
