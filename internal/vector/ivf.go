package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hyperjump/kotae/internal/models"
)

// kmeansIterations bounds centroid refinement per rebuild.
const kmeansIterations = 10

// IVFIndex is an approximate-search index: entries are partitioned into
// numLists clusters by k-means over their vectors, and a query scans only
// the numProbe closest clusters. The cluster structure is an owned,
// rebuildable acceleration structure over the same entry set; it is rebuilt
// from scratch whenever the entry count doubles since the last build and is
// never persisted (LoadFile retrains it). Below trainThreshold entries the
// index degenerates to an exact scan, so small collections lose nothing.
type IVFIndex struct {
	manifest Manifest
	entries  map[string]*Entry
	numLists int
	numProbe int

	centroids [][]float32
	lists     [][]string // chunk ids per cluster
	assign    map[string]int
	builtAt   int // entry count at last rebuild; 0 = not built

	mu sync.RWMutex
}

// NewIVFIndex creates a clustered approximate index. numLists is the number
// of clusters, numProbe how many are scanned per query (numProbe >= numLists
// makes search exact).
func NewIVFIndex(dimension int, metric Metric, embedderID string, numLists, numProbe int) (*IVFIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", models.ErrConfig, dimension)
	}
	if numLists <= 0 || numProbe <= 0 {
		return nil, fmt.Errorf("%w: num_lists and num_probe must be positive, got %d/%d",
			models.ErrConfig, numLists, numProbe)
	}
	metric, err := ParseMetric(string(metric))
	if err != nil {
		return nil, err
	}
	return &IVFIndex{
		manifest: Manifest{
			Dimension:     dimension,
			Metric:        metric,
			EmbedderID:    embedderID,
			FormatVersion: formatVersion,
		},
		entries:  make(map[string]*Entry),
		numLists: numLists,
		numProbe: numProbe,
		assign:   make(map[string]int),
	}, nil
}

// trainThreshold is the entry count below which clustering is not worth it.
func (iv *IVFIndex) trainThreshold() int {
	return iv.numLists * 4
}

// Type returns the strategy identifier.
func (iv *IVFIndex) Type() string {
	return string(IndexTypeIVF)
}

// Insert adds an entry and assigns it to the nearest cluster, retraining
// the cluster structure when the entry set has grown enough.
func (iv *IVFIndex) Insert(ctx context.Context, e Entry) error {
	if err := validateDimension(len(e.Vector), iv.manifest.Dimension); err != nil {
		return err
	}
	iv.mu.Lock()
	defer iv.mu.Unlock()
	if _, exists := iv.entries[e.ChunkID]; exists {
		return fmt.Errorf("%w: %s", models.ErrDuplicateID, e.ChunkID)
	}
	iv.addLocked(copyEntry(e))
	return nil
}

// Upsert adds an entry, superseding any existing entry with the same id.
func (iv *IVFIndex) Upsert(ctx context.Context, e Entry) error {
	if err := validateDimension(len(e.Vector), iv.manifest.Dimension); err != nil {
		return err
	}
	iv.mu.Lock()
	defer iv.mu.Unlock()
	if _, exists := iv.entries[e.ChunkID]; exists {
		iv.removeLocked(e.ChunkID)
	}
	iv.addLocked(copyEntry(e))
	return nil
}

// Delete removes an entry by id. Absent ids are a no-op.
func (iv *IVFIndex) Delete(ctx context.Context, chunkID string) error {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.removeLocked(chunkID)
	return nil
}

func (iv *IVFIndex) addLocked(e *Entry) {
	iv.entries[e.ChunkID] = e
	if iv.shouldRebuildLocked() {
		iv.rebuildLocked()
		return
	}
	if iv.builtAt > 0 {
		list := iv.nearestCentroidLocked(e.Vector)
		iv.lists[list] = append(iv.lists[list], e.ChunkID)
		iv.assign[e.ChunkID] = list
	}
}

func (iv *IVFIndex) removeLocked(chunkID string) {
	if _, ok := iv.entries[chunkID]; !ok {
		return
	}
	delete(iv.entries, chunkID)
	if list, ok := iv.assign[chunkID]; ok {
		ids := iv.lists[list]
		for i, id := range ids {
			if id == chunkID {
				iv.lists[list] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		delete(iv.assign, chunkID)
	}
}

func (iv *IVFIndex) shouldRebuildLocked() bool {
	n := len(iv.entries)
	if n < iv.trainThreshold() {
		return false
	}
	return iv.builtAt == 0 || n >= iv.builtAt*2
}

// rebuildLocked retrains centroids with k-means. Initial centroids are
// evenly spaced over the id-sorted entry set, so rebuilds over the same
// entry set are deterministic.
func (iv *IVFIndex) rebuildLocked() {
	n := len(iv.entries)
	k := iv.numLists
	if k > n {
		k = n
	}
	ids := make([]string, 0, n)
	for id := range iv.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	centroids := make([][]float32, k)
	for i := 0; i < k; i++ {
		seed := iv.entries[ids[i*n/k]].Vector
		c := make([]float32, len(seed))
		copy(c, seed)
		centroids[i] = c
	}

	assign := make(map[string]int, n)
	for iter := 0; iter < kmeansIterations; iter++ {
		changed := false
		for _, id := range ids {
			best := nearestCentroid(iv.manifest.Metric, centroids, iv.entries[id].Vector)
			if prev, ok := assign[id]; !ok || prev != best {
				assign[id] = best
				changed = true
			}
		}
		if !changed {
			break
		}
		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, iv.manifest.Dimension)
		}
		for _, id := range ids {
			c := assign[id]
			counts[c]++
			for j, v := range iv.entries[id].Vector {
				sums[c][j] += float64(v)
			}
		}
		for i := 0; i < k; i++ {
			if counts[i] == 0 {
				continue // keep previous centroid for empty clusters
			}
			for j := range centroids[i] {
				centroids[i][j] = float32(sums[i][j] / float64(counts[i]))
			}
		}
	}

	lists := make([][]string, k)
	for _, id := range ids {
		c := assign[id]
		lists[c] = append(lists[c], id)
	}
	iv.centroids = centroids
	iv.lists = lists
	iv.assign = assign
	iv.builtAt = n
}

func (iv *IVFIndex) nearestCentroidLocked(vec []float32) int {
	return nearestCentroid(iv.manifest.Metric, iv.centroids, vec)
}

func nearestCentroid(metric Metric, centroids [][]float32, vec []float32) int {
	best, bestScore := 0, Score(metric, centroids[0], vec)
	for i := 1; i < len(centroids); i++ {
		if s := Score(metric, centroids[i], vec); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// Search scans the numProbe clusters closest to the query, or all entries
// when the cluster structure is not built.
func (iv *IVFIndex) Search(ctx context.Context, query []float32, k int, minSimilarity float64) ([]Hit, error) {
	if err := validateK(k); err != nil {
		return nil, err
	}
	if err := validateDimension(len(query), iv.manifest.Dimension); err != nil {
		return nil, err
	}
	iv.mu.RLock()
	defer iv.mu.RUnlock()

	var hits []Hit
	score := func(e *Entry) {
		s := Score(iv.manifest.Metric, query, e.Vector)
		if s >= minSimilarity {
			hits = append(hits, Hit{ChunkID: e.ChunkID, Score: s, Entry: e})
		}
	}
	if iv.builtAt == 0 {
		for _, e := range iv.entries {
			score(e)
		}
	} else {
		for _, list := range iv.probeListsLocked(query) {
			for _, id := range iv.lists[list] {
				score(iv.entries[id])
			}
		}
	}
	sortHits(hits)
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// probeListsLocked returns the indices of the numProbe clusters whose
// centroids score highest against the query.
func (iv *IVFIndex) probeListsLocked(query []float32) []int {
	type scored struct {
		list  int
		score float64
	}
	all := make([]scored, len(iv.centroids))
	for i, c := range iv.centroids {
		all[i] = scored{list: i, score: Score(iv.manifest.Metric, query, c)}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].list < all[j].list
	})
	probe := iv.numProbe
	if probe > len(all) {
		probe = len(all)
	}
	out := make([]int, probe)
	for i := 0; i < probe; i++ {
		out[i] = all[i].list
	}
	return out
}

// Manifest returns a snapshot of the manifest with the live entry count.
func (iv *IVFIndex) Manifest() Manifest {
	iv.mu.RLock()
	defer iv.mu.RUnlock()
	m := iv.manifest
	m.Count = len(iv.entries)
	return m
}

// Size returns the number of stored entries.
func (iv *IVFIndex) Size() int {
	iv.mu.RLock()
	defer iv.mu.RUnlock()
	return len(iv.entries)
}

// SaveFile persists manifest and entries. The cluster structure is derived
// state and is not written; LoadFile retrains it.
func (iv *IVFIndex) SaveFile(path string) error {
	iv.mu.RLock()
	defer iv.mu.RUnlock()
	m := iv.manifest
	m.Count = len(iv.entries)
	return writeIndexFile(path, m, iv.entries)
}

// LoadFile replaces the index contents from path and retrains clusters.
func (iv *IVFIndex) LoadFile(path string) error {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	m, entries, err := readIndexFile(path, iv.manifest)
	if err != nil {
		return err
	}
	if iv.manifest.EmbedderID == "" {
		iv.manifest.EmbedderID = m.EmbedderID
	}
	iv.entries = entries
	iv.assign = make(map[string]int, len(entries))
	iv.centroids = nil
	iv.lists = nil
	iv.builtAt = 0
	if len(entries) >= iv.trainThreshold() {
		iv.rebuildLocked()
	}
	return nil
}

// Close is a no-op for IVFIndex.
func (iv *IVFIndex) Close() error {
	return nil
}
