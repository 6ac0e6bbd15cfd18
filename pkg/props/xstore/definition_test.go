package xstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ParseReloadMode 测试
// =============================================================================

func TestParseReloadMode(t *testing.T) {
	tests := []struct {
		input   string
		want    ReloadMode
		wantErr bool
	}{
		{"sync", ReloadSync, false},
		{"async", ReloadAsync, false},
		{"watch", ReloadWatch, false},
		{"SYNC", ReloadSync, false},
		{"  Async  ", ReloadAsync, false},
		{"", "", true},
		{"cron", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseReloadMode(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrBadDefinition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// Definition.Validate 测试
// =============================================================================

func TestDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		def     *Definition
		wantErr error
	}{
		{
			name:    "nil",
			def:     nil,
			wantErr: ErrNilDefinition,
		},
		{
			name:    "blank_name",
			def:     &Definition{Name: "  "},
			wantErr: ErrBadDefinition,
		},
		{
			name: "minimal",
			def:  &Definition{Name: "app"},
		},
		{
			name: "sync_default_period",
			def: &Definition{
				Name:      "app",
				HotReload: &HotReload{Mode: ReloadSync},
			},
		},
		{
			name: "sync_with_period",
			def: &Definition{
				Name:      "app",
				HotReload: &HotReload{Mode: ReloadSync, Period: time.Minute},
			},
		},
		{
			name: "sync_negative_period",
			def: &Definition{
				Name:      "app",
				HotReload: &HotReload{Mode: ReloadSync, Period: -time.Second},
			},
			wantErr: ErrBadDefinition,
		},
		{
			name: "sync_with_cron",
			def: &Definition{
				Name:      "app",
				HotReload: &HotReload{Mode: ReloadSync, Cron: "* * * * *"},
			},
			wantErr: ErrBadDefinition,
		},
		{
			name: "async_with_period",
			def: &Definition{
				Name:      "app",
				HotReload: &HotReload{Mode: ReloadAsync, Period: 30 * time.Second},
			},
		},
		{
			name: "async_with_cron",
			def: &Definition{
				Name:      "app",
				HotReload: &HotReload{Mode: ReloadAsync, Cron: "*/5 * * * *"},
			},
		},
		{
			name: "async_without_trigger",
			def: &Definition{
				Name:      "app",
				HotReload: &HotReload{Mode: ReloadAsync},
			},
			wantErr: ErrBadDefinition,
		},
		{
			name: "async_period_and_cron",
			def: &Definition{
				Name: "app",
				HotReload: &HotReload{
					Mode:   ReloadAsync,
					Period: time.Minute,
					Cron:   "*/5 * * * *",
				},
			},
			wantErr: ErrBadDefinition,
		},
		{
			name: "watch",
			def: &Definition{
				Name:      "app",
				HotReload: &HotReload{Mode: ReloadWatch},
			},
		},
		{
			name: "watch_with_cron",
			def: &Definition{
				Name:      "app",
				HotReload: &HotReload{Mode: ReloadWatch, Cron: "* * * * *"},
			},
			wantErr: ErrBadDefinition,
		},
		{
			name: "unknown_mode",
			def: &Definition{
				Name:      "app",
				HotReload: &HotReload{Mode: ReloadMode("poll")},
			},
			wantErr: ErrBadDefinition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
