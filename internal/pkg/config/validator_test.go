package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("*/4 * * * *"))
	assert.NoError(t, ValidateCronSchedule("30 5 * * 1-5"))
	assert.Error(t, ValidateCronSchedule(""))
	assert.Error(t, ValidateCronSchedule("* * *"))
	// 秒フィールドは受け付けない
	assert.Error(t, ValidateCronSchedule("0 */4 * * * *"))
}

func TestValidateTimezone(t *testing.T) {
	assert.NoError(t, ValidateTimezone("UTC"))
	assert.NoError(t, ValidateTimezone("Asia/Tokyo"))
	assert.Error(t, ValidateTimezone(""))
	assert.Error(t, ValidateTimezone("Mars/Olympus"))
}

func TestValidateRanges(t *testing.T) {
	assert.NoError(t, ValidateDuration(time.Minute, time.Second, time.Hour))
	assert.Error(t, ValidateDuration(2*time.Hour, time.Second, time.Hour))
	assert.NoError(t, DurationRange(time.Second, time.Minute)(time.Second))

	assert.NoError(t, ValidatePositiveDuration(time.Nanosecond))
	assert.Error(t, ValidatePositiveDuration(0))

	assert.NoError(t, ValidateIntRange(1, 1, 100))
	assert.Error(t, ValidateIntRange(0, 1, 100))
	assert.Error(t, IntRange(1, 64)(65))
}

func TestValidateOneOf(t *testing.T) {
	v := ValidateOneOf("memory", "redis")
	assert.NoError(t, v("redis"))
	assert.ErrorContains(t, v("memcached"), "memory, redis")
}
