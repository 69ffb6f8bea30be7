package geoip

import (
	"testing"
	"time"

	"github.com/oschwald/maxminddb-golang"
	"github.com/stretchr/testify/assert"
)

func TestPickName(t *testing.T) {
	names := map[string]string{"en": "Beijing", "zh-CN": "北京", "ja": "北京市"}
	assert.Equal(t, "北京", pickName(names, "zh-CN"))
	assert.Equal(t, "Beijing", pickName(names, "fr"))
	assert.Equal(t, "北京市", pickName(map[string]string{"ja": "北京市", "de": ""}, "fr"))
	assert.Equal(t, "", pickName(nil, "zh-CN"))
}

func TestDescribe(t *testing.T) {
	m := maxminddb.Metadata{
		DatabaseType:             "GeoLite2-City",
		BinaryFormatMajorVersion: 2,
		BinaryFormatMinorVersion: 0,
		IPVersion:                6,
		BuildEpoch:               uint(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC).Unix()),
		NodeCount:                42,
		Languages:                []string{"en", "zh-CN"},
	}
	assert.Equal(t, "GeoLite2-City v2.0 ipv6 built=2026-10-01 nodes=42 langs=en/zh-CN", Describe(m))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(t.TempDir()+"/missing.mmdb", "")
	assert.Error(t, err)
}
