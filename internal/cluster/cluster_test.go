package cluster

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/nao1215/doctaxon/internal/model"
)

// blobs returns groups of points around well separated centers. Point i of
// group g is center g plus a small deterministic offset.
func blobs(groups, perGroup int) ([][]float64, []int) {
	// Corners of a regular tetrahedron, all pairwise equidistant.
	centers := [][]float64{{10, 10, 10}, {10, -10, -10}, {-10, 10, -10}, {-10, -10, 10}}
	var points [][]float64
	var truth []int
	for g := range groups {
		for i := range perGroup {
			off := float64(i%3)*0.1 - 0.1
			p := []float64{centers[g][0] + off, centers[g][1] - off, centers[g][2] + float64(i)*0.05}
			points = append(points, p)
			truth = append(truth, g)
		}
	}
	return points, truth
}

// samePartition reports whether two labellings group points identically.
func samePartition(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	ab := make(map[int]int)
	ba := make(map[int]int)
	for i := range a {
		if x, ok := ab[a[i]]; ok && x != b[i] {
			return false
		}
		if y, ok := ba[b[i]]; ok && y != a[i] {
			return false
		}
		ab[a[i]] = b[i]
		ba[b[i]] = a[i]
	}
	return true
}

func unitsFor(points [][]float64) ([]model.Unit, []*model.Page) {
	units := make([]model.Unit, len(points))
	pages := make([]*model.Page, len(points))
	for i, p := range points {
		id := int64(i + 1)
		pages[i] = &model.Page{ID: id, Title: "page"}
		units[i] = model.Unit{PageID: id, Vector: p, Meta: model.UnitMeta{Kind: model.UnitKindPage}}
	}
	return units, pages
}

func TestParseMethod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Method
		wantErr bool
	}{
		{"", MethodKMeans, false},
		{"KMeans", MethodKMeans, false},
		{"ward", MethodHierarchical, false},
		{"hierarchical", MethodHierarchical, false},
		{"density-based", MethodDBSCAN, false},
		{"dbscan", MethodDBSCAN, false},
		{"spectral", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseMethod(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownMethod) {
					t.Errorf("expected ErrUnknownMethod, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseMethod(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestKMeans(t *testing.T) {
	t.Parallel()

	t.Run("recovers separated groups", func(t *testing.T) {
		t.Parallel()
		points, truth := blobs(3, 6)
		res := KMeans(points, 3, DefaultKMeansConfig())
		if !samePartition(res.Labels, truth) {
			t.Errorf("labels %v do not match groups %v", res.Labels, truth)
		}
		if len(res.Centroids) != 3 {
			t.Errorf("got %d centroids, want 3", len(res.Centroids))
		}
	})

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		t.Parallel()
		rng := rand.New(rand.NewPCG(7, 7))
		points := make([][]float64, 30)
		for i := range points {
			points[i] = []float64{rng.Float64(), rng.Float64(), rng.Float64()}
		}
		a := KMeans(points, 4, DefaultKMeansConfig())
		b := KMeans(points, 4, DefaultKMeansConfig())
		if !slices.Equal(a.Labels, b.Labels) {
			t.Errorf("labels differ between runs: %v vs %v", a.Labels, b.Labels)
		}
		if a.Inertia != b.Inertia {
			t.Errorf("inertia differs between runs: %v vs %v", a.Inertia, b.Inertia)
		}
	})

	t.Run("every label is used", func(t *testing.T) {
		t.Parallel()
		points, _ := blobs(2, 5)
		res := KMeans(points, 6, DefaultKMeansConfig())
		used := make(map[int]bool)
		for _, l := range res.Labels {
			used[l] = true
		}
		if len(used) != 6 {
			t.Errorf("used %d labels, want 6", len(used))
		}
	})

	t.Run("k is clamped to point count", func(t *testing.T) {
		t.Parallel()
		res := KMeans([][]float64{{0}, {1}}, 5, DefaultKMeansConfig())
		if len(res.Centroids) != 2 {
			t.Errorf("got %d centroids, want 2", len(res.Centroids))
		}
	})
}

func TestWard(t *testing.T) {
	t.Parallel()

	points, truth := blobs(4, 5)
	labels := Ward(points, 4)
	if !samePartition(labels, truth) {
		t.Errorf("labels %v do not match groups %v", labels, truth)
	}

	if got := Ward(points, 1); slices.Max(got) != 0 {
		t.Errorf("k=1 must put everything in one cluster, got %v", got)
	}
	if got := Ward(points, len(points)); slices.Max(got) != len(points)-1 {
		t.Errorf("k=n must give singletons, got %v", got)
	}
}

func TestDBSCAN(t *testing.T) {
	t.Parallel()

	points := [][]float64{
		{1, 0, 0}, {1, 0.05, 0}, {1, 0, 0.05}, {1, 0.02, 0.02},
		{0, 1, 0}, {0.05, 1, 0}, {0, 1, 0.05},
		{0, 0, 1},
	}
	labels := DBSCAN(points, 0.1, 3)

	want := []int{0, 0, 0, 0, 1, 1, 1, Noise}
	if !slices.Equal(labels, want) {
		t.Errorf("DBSCAN labels = %v, want %v", labels, want)
	}
}

func TestSilhouette(t *testing.T) {
	t.Parallel()

	points, truth := blobs(3, 5)
	if got := Silhouette(points, truth); got < 0.8 || got > 1 {
		t.Errorf("Silhouette of separated groups = %v, want > 0.8", got)
	}

	single := make([]int, len(points))
	if got := Silhouette(points, single); got != 0 {
		t.Errorf("Silhouette of one cluster = %v, want 0", got)
	}
}

func TestCohesion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		vectors [][]float64
		want    float64
	}{
		{"singleton", [][]float64{{0.3, 0.1}}, 1},
		{"identical", [][]float64{{1, 1}, {2, 2}, {3, 3}}, 1},
		{"orthogonal", [][]float64{{1, 0}, {0, 1}}, 0},
		{"opposite", [][]float64{{1, 0}, {-1, 0}}, -1},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Cohesion(tt.vectors); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cohesion = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectK(t *testing.T) {
	t.Parallel()

	t.Run("small inputs fall back without error", func(t *testing.T) {
		t.Parallel()
		for n := 1; n < 6; n++ {
			points, _ := blobs(1, n)
			sel, err := SelectK(context.Background(), points, 3, 15, DefaultKMeansConfig())
			if err != nil {
				t.Fatalf("n=%d: unexpected error: %v", n, err)
			}
			if sel.Strategy != StrategyFallback || sel.K != FallbackK(n) {
				t.Errorf("n=%d: got k=%d (%s), want fallback %d", n, sel.K, sel.Strategy, FallbackK(n))
			}
		}
	})

	t.Run("result stays inside the candidate range", func(t *testing.T) {
		t.Parallel()
		for _, n := range []int{6, 8, 12, 20, 45} {
			rng := rand.New(rand.NewPCG(uint64(n), 1))
			points := make([][]float64, n)
			for i := range points {
				points[i] = []float64{rng.Float64(), rng.Float64(), rng.Float64(), rng.Float64()}
			}
			sel, err := SelectK(context.Background(), points, 3, 15, DefaultKMeansConfig())
			if err != nil {
				t.Fatalf("n=%d: unexpected error: %v", n, err)
			}
			if sel.Strategy == StrategyFallback {
				continue
			}
			if sel.K < 2 || sel.K > n/3 {
				t.Errorf("n=%d: k=%d outside [2, %d]", n, sel.K, n/3)
			}
		}
	})

	t.Run("prefers the natural group count", func(t *testing.T) {
		t.Parallel()
		points, _ := blobs(4, 10)
		sel, err := SelectK(context.Background(), points, 3, 15, DefaultKMeansConfig())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sel.Strategy != StrategyCombined {
			t.Fatalf("strategy = %s, want %s", sel.Strategy, StrategyCombined)
		}
		if sel.K != 4 {
			t.Errorf("k = %d, want 4 (candidates %v, scores %v)", sel.K, sel.Candidates, sel.Scores)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		points, _ := blobs(4, 10)
		if _, err := SelectK(ctx, points, 3, 15, DefaultKMeansConfig()); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestBuildClusters(t *testing.T) {
	t.Parallel()

	pages := []*model.Page{{ID: 1}, {ID: 2}, {ID: 3}}
	units := []model.Unit{
		{PageID: 1, Vector: []float64{1, 0}, Meta: model.UnitMeta{
			Topics: []model.Topic{{Name: "Auth"}}, DocType: "guide", AudienceLevel: "beginner",
		}},
		{PageID: 1, Vector: []float64{1, 0.1}, Meta: model.UnitMeta{
			Topics: []model.Topic{{Name: "Tokens"}}, AIDocType: "tutorial",
		}},
		{PageID: 2, Vector: []float64{0.9, 0}, Meta: model.UnitMeta{
			Topics: []model.Topic{{Name: "Tokens"}, {Name: "Auth"}}, DocType: "guide",
		}},
		{PageID: 3, Vector: []float64{0, 1}},
	}
	labels := []int{5, 5, 5, Noise}

	clusters := BuildClusters(units, labels, pages)
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1 (noise must be excluded)", len(clusters))
	}
	c := clusters[0]

	if c.ID != 5 || c.Size != 2 || c.UnitCount != 3 {
		t.Errorf("ID/Size/UnitCount = %d/%d/%d, want 5/2/3", c.ID, c.Size, c.UnitCount)
	}
	if !slices.Equal(c.PageIDs, []int64{1, 2}) || len(c.Pages) != 2 {
		t.Errorf("PageIDs = %v (pages %d), want [1 2]", c.PageIDs, len(c.Pages))
	}
	// Auth and Tokens both appear twice; Auth was seen first.
	if c.PrimaryTopic != "Auth" {
		t.Errorf("PrimaryTopic = %q, want Auth", c.PrimaryTopic)
	}
	if c.PrimaryDocType != "guide" {
		t.Errorf("PrimaryDocType = %q, want guide", c.PrimaryDocType)
	}
	if c.PrimaryAudience != "beginner" {
		t.Errorf("PrimaryAudience = %q, want beginner", c.PrimaryAudience)
	}
	if c.Cohesion < -1 || c.Cohesion > 1 {
		t.Errorf("Cohesion = %v out of range", c.Cohesion)
	}
}

func TestBuildClusters_Defaults(t *testing.T) {
	t.Parallel()

	units := []model.Unit{{PageID: 9, Vector: []float64{1, 2}}}
	clusters := BuildClusters(units, []int{0}, nil)
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1", len(clusters))
	}
	c := clusters[0]
	if c.PrimaryTopic != model.DefaultPrimaryTopic ||
		c.PrimaryDocType != model.DefaultPrimaryDocType ||
		c.PrimaryAudience != model.DefaultPrimaryAudience {
		t.Errorf("unexpected defaults: %q %q %q", c.PrimaryTopic, c.PrimaryDocType, c.PrimaryAudience)
	}
	if c.Cohesion != 1 {
		t.Errorf("singleton Cohesion = %v, want exactly 1", c.Cohesion)
	}
}

func TestSelector_Run(t *testing.T) {
	t.Parallel()

	t.Run("auto k partitions every page once", func(t *testing.T) {
		t.Parallel()
		rng := rand.New(rand.NewPCG(20, 3))
		points := make([][]float64, 20)
		for i := range points {
			points[i] = make([]float64, 8)
			for d := range points[i] {
				points[i][d] = rng.Float64()
			}
		}
		units, pages := unitsFor(points)

		res, err := NewSelector(WithSizeBounds(3, 8)).Run(context.Background(), units, pages)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(res.Clusters) < 3 || len(res.Clusters) > 6 {
			t.Errorf("got %d clusters, want 3-6", len(res.Clusters))
		}
		if res.Selection == nil {
			t.Error("Selection must be set for auto k")
		}

		seen := make(map[int64]int)
		for i, c := range res.Clusters {
			if i > 0 && c.Size > res.Clusters[i-1].Size {
				t.Error("clusters must be sorted by descending size")
			}
			if c.Cohesion < -1 || c.Cohesion > 1 || math.IsNaN(c.Cohesion) {
				t.Errorf("cluster %d cohesion %v out of range", c.ID, c.Cohesion)
			}
			for _, id := range c.PageIDs {
				seen[id]++
			}
		}
		if len(seen) != 20 {
			t.Errorf("%d pages clustered, want 20", len(seen))
		}
		for id, n := range seen {
			if n != 1 {
				t.Errorf("page %d appears in %d clusters", id, n)
			}
		}
	})

	t.Run("tiny input degrades with a warning", func(t *testing.T) {
		t.Parallel()
		points, _ := blobs(1, 4)
		units, pages := unitsFor(points)
		res, err := NewSelector().Run(context.Background(), units, pages)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if res.K != 1 || len(res.Clusters) != 1 {
			t.Errorf("K=%d clusters=%d, want 1/1", res.K, len(res.Clusters))
		}
		if len(res.Warnings) == 0 {
			t.Error("expected a warning for the fallback cluster count")
		}
	})

	t.Run("explicit k larger than input is clamped", func(t *testing.T) {
		t.Parallel()
		points, _ := blobs(3, 1)
		units, pages := unitsFor(points)
		res, err := NewSelector(WithK(10), WithMethod(MethodHierarchical)).Run(context.Background(), units, pages)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if res.K != 3 || len(res.Warnings) != 1 {
			t.Errorf("K=%d warnings=%v, want 3 with one warning", res.K, res.Warnings)
		}
	})

	t.Run("dbscan with everything as noise", func(t *testing.T) {
		t.Parallel()
		units, pages := unitsFor([][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
		res, err := NewSelector(WithMethod(MethodDBSCAN)).Run(context.Background(), units, pages)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(res.Clusters) != 0 || res.Noise != 3 {
			t.Errorf("clusters=%d noise=%d, want 0/3", len(res.Clusters), res.Noise)
		}
		if len(res.Warnings) != 1 {
			t.Errorf("warnings = %v, want one", res.Warnings)
		}
	})

	t.Run("no units", func(t *testing.T) {
		t.Parallel()
		res, err := NewSelector().Run(context.Background(), nil, nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(res.Clusters) != 0 || len(res.Warnings) != 1 {
			t.Errorf("clusters=%d warnings=%v", len(res.Clusters), res.Warnings)
		}
	})
}
