package config

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given a default config", t, func() {
		cfg := New()

		Convey("Then it should carry sensible defaults", func() {
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.Addr, ShouldNotBeEmpty)
			So(cfg.Timezone, ShouldEqual, "UTC")
			So(cfg.SnapshotSize, ShouldBeGreaterThan, 0)
			So(cfg.MaxLeaderboardLimit, ShouldBeGreaterThan, 0)
			So(cfg.SummaryTTLSec, ShouldBeGreaterThan, 0)
			So(cfg.CatalogTTLSec, ShouldBeGreaterThanOrEqualTo, cfg.SummaryTTLSec)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given environment overrides", t, func() {
		t.Setenv("REP_ADDR", ":7070")
		t.Setenv("REP_TIMEZONE", "America/Sao_Paulo")
		t.Setenv("REP_SNAPSHOT_SIZE", "25")

		cfg, err := Load(context.Background())

		Convey("Then env values should win over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.Timezone, ShouldEqual, "America/Sao_Paulo")
			So(cfg.SnapshotSize, ShouldEqual, 25)
		})
	})

	Convey("Given an invalid override", t, func() {
		t.Setenv("REP_ADDR", "")

		_, err := Load(context.Background())

		Convey("Then validation should reject it", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
