package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultListingConfigIsValid(t *testing.T) {
	require.NoError(t, validateListingConfig(DefaultListingConfig()))
}

func TestParseUTCOffset(t *testing.T) {
	cases := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "-03:00", want: -3 * 3600},
		{raw: "+05:30", want: 5*3600 + 30*60},
		{raw: "+00:00", want: 0},
		{raw: "03:00", wantErr: true},
		{raw: "-3:00", wantErr: true},
		{raw: "+15:00", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := parseUTCOffset(tc.raw)
		if tc.wantErr {
			assert.Error(t, err, tc.raw)
			continue
		}
		assert.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestNotificationListingLocation(t *testing.T) {
	loc := DefaultListingConfig().Notifications.Location()
	ts := time.Date(2024, 4, 12, 0, 0, 0, 0, loc)
	assert.Equal(t, "2024-04-12T03:00:00Z", ts.UTC().Format(time.RFC3339))

	broken := NotificationListing{UTCOffset: "nope"}
	assert.Equal(t, time.UTC, broken.Location())
}

func TestValidateListingConfigRejectsBadValues(t *testing.T) {
	cfg := DefaultListingConfig()
	cfg.Notifications.PageSize = 0
	assert.Error(t, validateListingConfig(cfg))

	cfg = DefaultListingConfig()
	cfg.Registry.MaxLimit = 5
	assert.Error(t, validateListingConfig(cfg))

	cfg = DefaultListingConfig()
	cfg.Notifications.Subtypes.Water = 0
	assert.Error(t, validateListingConfig(cfg))
}

func TestListingConfigHolderFallsBackToDefaults(t *testing.T) {
	var holder *ListingConfigHolder
	assert.Equal(t, DefaultListingConfig(), holder.Get())

	custom := DefaultListingConfig()
	custom.Notifications.PageSize = 25
	assert.Equal(t, 25, NewStaticListingConfigHolder(custom).Get().Notifications.PageSize)
}
