package report

import (
	"bytes"
	"testing"

	"github.com/avelarde/sizecast/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0.00 B"},
		{"bytes", 512, "512.00 B"},
		{"boundary stays bytes", 1023, "1023.00 B"},
		{"kilobytes", 1536, "1.50 KB"},
		{"megabytes", 5 * 1024 * 1024, "5.00 MB"},
		{"gigabytes", 3 * 1024 * 1024 * 1024, "3.00 GB"},
		{"terabytes", 2 * 1024 * 1024 * 1024 * 1024, "2.00 TB"},
		{"petabytes", 1024 * 1024 * 1024 * 1024 * 1024, "1.00 PB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSize(tt.bytes))
		})
	}
}

func TestRenderer_DatabaseSize(t *testing.T) {
	summary := &domain.DatabaseSize{
		Name:             "shop",
		TotalCollections: 2,
		TotalDocuments:   6000,
		TotalSizeBytes:   372000,
		Collections: map[string]domain.CollectionSize{
			"Products": {DocumentCount: 1000, AvgDocumentSizeBytes: 62, TotalSizeBytes: 62000},
			"Orders":   {DocumentCount: 5000, AvgDocumentSizeBytes: 62, TotalSizeBytes: 310000},
		},
	}

	var buf bytes.Buffer
	NewRenderer(&buf).DatabaseSize(summary)
	out := buf.String()

	assert.Contains(t, out, "DATABASE SIZE")
	assert.Contains(t, out, "Database:          shop")
	assert.Contains(t, out, "Total Documents:   6000")
	assert.Contains(t, out, "363.28 KB")
	// Largest collection first.
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Orders")), bytes.Index(buf.Bytes(), []byte("Products")))
	assert.Contains(t, out, "(83.33%)")
}

func TestRenderer_DatabaseSize_ZeroTotal(t *testing.T) {
	summary := &domain.DatabaseSize{
		Name:        "empty",
		Collections: map[string]domain.CollectionSize{"A": {}},
	}

	var buf bytes.Buffer
	NewRenderer(&buf).DatabaseSize(summary)

	assert.Contains(t, buf.String(), "(0.00%)")
}

func TestRenderer_Estimate_Filter(t *testing.T) {
	est := &domain.Estimate{
		Operator:        "Filter (no sharding)",
		Collection:      "Products",
		InputDocCount:   1000,
		OutputDocCount:  100,
		AvgDocSizeBytes: 62,
		OutputSizeBytes: 6200,
		Costs:           &domain.Costs{IOCost: 0.16, CPUCost: 1.0, TotalCost: 1.16},
	}

	var buf bytes.Buffer
	NewRenderer(&buf).Estimate(est)
	out := buf.String()

	assert.Contains(t, out, "Filter (no sharding)")
	assert.Contains(t, out, "Collection:   Products")
	assert.Contains(t, out, "Output Docs:  100")
	assert.Contains(t, out, "6.05 KB")
	assert.Contains(t, out, "total=1.1600")
}

func TestRenderer_Estimate_ShardedJoin(t *testing.T) {
	est := &domain.Estimate{
		Operator:        "Join (with sharding)",
		LeftCollection:  "Products",
		RightCollection: "Orders",
		JoinKey:         "product_name",
		Shards:          4,
		CoLocated:       true,
		OutputDocCount:  5000,
		AvgDocSizeBytes: 124,
		OutputSizeBytes: 620000,
		Costs:           &domain.Costs{NetworkCost: 0.062, TotalCost: 10},
	}

	var buf bytes.Buffer
	NewRenderer(&buf).Estimate(est)
	out := buf.String()

	assert.Contains(t, out, "Products JOIN Orders ON product_name")
	assert.Contains(t, out, "Shards:       4 (co-located)")
	assert.Contains(t, out, "net=0.0620")
}

func TestBar(t *testing.T) {
	assert.Equal(t, "", bar(0))
	assert.Equal(t, 25, len([]rune(bar(50))))
	assert.Equal(t, 50, len([]rune(bar(100))))
	assert.Equal(t, 50, len([]rune(bar(250))))
}
