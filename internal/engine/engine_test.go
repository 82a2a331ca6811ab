package engine_test

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"careersetu/listing-service/internal/action"
	"careersetu/listing-service/internal/engine"
	"careersetu/listing-service/internal/model"
	"careersetu/listing-service/internal/normalize"
	"careersetu/listing-service/internal/notify"
	"careersetu/listing-service/internal/query"
)

type stubFetcher struct {
	records []model.RawRecord
	err     error
	calls   int
}

func (f *stubFetcher) FetchAll(_ context.Context) ([]model.RawRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type captureSink struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (s *captureSink) Publish(_ context.Context, m notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	return nil
}

func (s *captureSink) byKind(k notify.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages {
		if m.Kind == k {
			n++
		}
	}
	return n
}

func jobRecord(i int, jobType string) model.RawRecord {
	return model.RawRecord{
		"id":        "job-" + strconv.Itoa(i),
		"job_title": "Role " + strconv.Itoa(i),
		"job_type":  jobType,
	}
}

// A full pipeline pass over six listings with page size six: filtering by
// "Full Time" keeps two, still one page, both matching.
func TestView_FilterShrinksWithinOnePage(t *testing.T) {
	records := []model.RawRecord{
		jobRecord(1, "Full Time"),
		jobRecord(2, "Internship"),
		jobRecord(3, "Full Time"),
		jobRecord(4, "Part Time"),
		jobRecord(5, "Internship"),
		jobRecord(6, "Contract"),
	}
	fetcher := &stubFetcher{records: records}
	eng := engine.New([]engine.Source{{Name: "jobs", Schema: normalize.JobSchema, Fetcher: fetcher}}, nil, nil, 6)

	if err := eng.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned %v", err)
	}

	v, err := eng.View(context.Background(), "", query.FilterState{
		Terms: map[string][]string{query.FacetJobType: {"Full Time"}},
	}, 1)
	if err != nil {
		t.Fatalf("View returned %v", err)
	}
	if v.TotalCount != 2 || len(v.Items) != 2 {
		t.Fatalf("TotalCount = %d, len(Items) = %d, want 2 and 2", v.TotalCount, len(v.Items))
	}
	if v.TotalPages != 1 || v.PageNumber != 1 {
		t.Errorf("TotalPages = %d, PageNumber = %d, want 1 and 1", v.TotalPages, v.PageNumber)
	}
	for _, item := range v.Items {
		if !item.HasTag("Full Time") {
			t.Errorf("item %s leaked through the jobType facet", item.ID)
		}
	}
}

// Identical snapshot, filter, page and statuses produce an equal View.
func TestView_ReferentialConsistency(t *testing.T) {
	eng := engine.New(nil, nil, nil, 6)
	listings := make([]model.Listing, 10)
	for i := range listings {
		listings[i] = model.Listing{ID: "l" + strconv.Itoa(i), Title: "t", Tags: []string{"Full Time"}}
	}
	eng.SetListings(listings)

	f := query.FilterState{Terms: map[string][]string{query.FacetJobType: {"Full Time"}}}
	a, err1 := eng.View(context.Background(), "", f, 2)
	b, err2 := eng.View(context.Background(), "", f, 2)
	if err1 != nil || err2 != nil {
		t.Fatalf("View errors: %v, %v", err1, err2)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same inputs produced different views")
	}
}

func TestView_AnnotatesActionStatus(t *testing.T) {
	store := action.NewMemoryStore()
	if err := store.Set(context.Background(), "user1", "l1", action.StatusConfirmed); err != nil {
		t.Fatal(err)
	}

	eng := engine.New(nil, store, nil, 6)
	eng.SetListings([]model.Listing{
		{ID: "l1", Title: "t"},
		{ID: "l2", Title: "t"},
	})

	v, err := eng.View(context.Background(), "user1", query.FilterState{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	byID := make(map[string]action.Status)
	for _, item := range v.Items {
		byID[item.ID] = item.ActionStatus
	}
	if byID["l1"] != action.StatusConfirmed {
		t.Errorf("l1 status = %q, want CONFIRMED", byID["l1"])
	}
	if byID["l2"] != action.StatusNotActed {
		t.Errorf("l2 status = %q, want NOT_ACTED", byID["l2"])
	}
}

// A filter change that shrinks the set lands the caller on the last page
// rather than erroring.
func TestView_PageClampsAfterFilterShrink(t *testing.T) {
	eng := engine.New(nil, nil, nil, 3)
	listings := make([]model.Listing, 10)
	for i := range listings {
		listings[i] = model.Listing{ID: "l" + strconv.Itoa(i), Title: "Role"}
	}
	listings[0].Tags = []string{"Remote"}
	listings[1].Tags = []string{"Remote"}
	eng.SetListings(listings)

	v, err := eng.View(context.Background(), "", query.FilterState{
		Terms: map[string][]string{query.FacetWorkMode: {"Remote"}},
	}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if v.PageNumber != 1 || v.TotalPages != 1 || len(v.Items) != 2 {
		t.Errorf("PageNumber = %d, TotalPages = %d, len = %d; want 1, 1, 2", v.PageNumber, v.TotalPages, len(v.Items))
	}
}

func TestView_NoSnapshotIsNotZeroResults(t *testing.T) {
	eng := engine.New(nil, nil, nil, 6)

	_, err := eng.View(context.Background(), "", query.FilterState{}, 1)
	if !errors.Is(err, engine.ErrNoSnapshot) {
		t.Fatalf("never-loaded view err = %v, want ErrNoSnapshot", err)
	}

	eng.SetListings(nil)
	v, err := eng.View(context.Background(), "", query.FilterState{}, 1)
	if err != nil {
		t.Fatalf("empty loaded snapshot must not error, got %v", err)
	}
	if v.TotalCount != 0 || v.TotalPages != 1 {
		t.Errorf("TotalCount = %d, TotalPages = %d, want 0 and 1", v.TotalCount, v.TotalPages)
	}
}

// One failing source keeps the old snapshot for its records and notifies.
func TestRefresh_PartialFailureNotifies(t *testing.T) {
	good := &stubFetcher{records: []model.RawRecord{jobRecord(1, "Full Time")}}
	bad := &stubFetcher{err: errors.New("upstream 503")}
	sink := &captureSink{}

	eng := engine.New([]engine.Source{
		{Name: "jobs", Schema: normalize.JobSchema, Fetcher: good},
		{Name: "gov-exams", Schema: normalize.JobSchema, Fetcher: bad},
	}, nil, sink, 6)

	err := eng.Refresh(context.Background())
	if err == nil {
		t.Fatal("partial failure must surface an error to the caller")
	}
	if n, loaded := eng.Size(); n != 1 || !loaded {
		t.Errorf("Size = %d, loaded = %v; the healthy source must still land", n, loaded)
	}
	if sink.byKind(notify.KindError) != 1 {
		t.Errorf("published %d error notifications, want 1", sink.byKind(notify.KindError))
	}
}

// When every source fails the previous snapshot stays in place.
func TestRefresh_TotalFailureKeepsSnapshot(t *testing.T) {
	fetcher := &stubFetcher{records: []model.RawRecord{jobRecord(1, "Full Time")}}
	eng := engine.New([]engine.Source{{Name: "jobs", Schema: normalize.JobSchema, Fetcher: fetcher}}, nil, nil, 6)

	if err := eng.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	fetcher.err = errors.New("upstream down")
	if err := eng.Refresh(context.Background()); err == nil {
		t.Fatal("total failure must return an error")
	}
	if n, loaded := eng.Size(); n != 1 || !loaded {
		t.Errorf("Size = %d, loaded = %v; previous snapshot must survive", n, loaded)
	}
}

// A failing source keeps the records it contributed on an earlier refresh;
// only its own slice goes stale, the healthy sources' slices still swap.
func TestRefresh_FailedSourceKeepsPreviousRecords(t *testing.T) {
	jobs := &stubFetcher{records: []model.RawRecord{jobRecord(1, "Full Time")}}
	exams := &stubFetcher{records: []model.RawRecord{jobRecord(2, "Full Time")}}
	eng := engine.New([]engine.Source{
		{Name: "jobs", Schema: normalize.JobSchema, Fetcher: jobs},
		{Name: "gov-exams", Schema: normalize.JobSchema, Fetcher: exams},
	}, nil, nil, 6)

	if err := eng.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	jobs.records = []model.RawRecord{jobRecord(1, "Full Time"), jobRecord(3, "Full Time")}
	exams.err = errors.New("upstream 503")
	if err := eng.Refresh(context.Background()); err == nil {
		t.Fatal("failed source must surface an error")
	}

	v, err := eng.View(context.Background(), "", query.FilterState{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	ids := make(map[string]bool)
	for _, item := range v.Items {
		ids[item.ID] = true
	}
	if !ids["job-2"] {
		t.Error("failed source's previously loaded record job-2 was dropped")
	}
	if !ids["job-1"] || !ids["job-3"] {
		t.Errorf("healthy source's fresh records missing, got %v", ids)
	}
	if v.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", v.TotalCount)
	}
}

// gateFetcher blocks inside FetchAll until released.
type gateFetcher struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (f *gateFetcher) FetchAll(_ context.Context) ([]model.RawRecord, error) {
	f.calls.Add(1)
	close(f.entered)
	<-f.release
	return []model.RawRecord{jobRecord(1, "Full Time")}, nil
}

// A Refresh started while one is in flight returns without fetching.
func TestRefresh_SkipsWhileInFlight(t *testing.T) {
	fetcher := &gateFetcher{entered: make(chan struct{}), release: make(chan struct{})}
	eng := engine.New([]engine.Source{{Name: "jobs", Schema: normalize.JobSchema, Fetcher: fetcher}}, nil, nil, 6)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := eng.Refresh(context.Background()); err != nil {
			t.Errorf("Refresh: %v", err)
		}
	}()
	<-fetcher.entered // the first refresh is now stuck inside its fetch

	if err := eng.Refresh(context.Background()); err != nil {
		t.Errorf("concurrent Refresh returned %v, want nil skip", err)
	}
	if n := fetcher.calls.Load(); n != 1 {
		t.Errorf("fetch calls = %d, want 1 — the second Refresh must not fetch", n)
	}

	close(fetcher.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first Refresh never finished")
	}
	if n, loaded := eng.Size(); n != 1 || !loaded {
		t.Errorf("Size = %d, loaded = %v after the released refresh", n, loaded)
	}
}

func TestCompose_IsPure(t *testing.T) {
	listings := []model.Listing{
		{ID: "a", Title: "t", Tags: []string{"Remote"}},
		{ID: "b", Title: "t"},
	}
	statuses := map[string]action.Status{"a": action.StatusPending}

	f := query.FilterState{Terms: map[string][]string{query.FacetWorkMode: {"Remote"}}}
	v := engine.Compose(listings, f, 1, 6, statuses)
	if len(v.Items) != 1 || v.Items[0].ID != "a" {
		t.Fatalf("Compose items = %v", v.Items)
	}
	if v.Items[0].ActionStatus != action.StatusPending {
		t.Errorf("status = %q, want PENDING", v.Items[0].ActionStatus)
	}
	if len(listings) != 2 || listings[0].ID != "a" {
		t.Error("Compose mutated its input")
	}
}
