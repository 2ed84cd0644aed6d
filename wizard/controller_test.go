// ABOUTME: Tests for the wizard controller
// ABOUTME: Drives navigation, saving, reconnects, and submission with real collaborators
package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markahope-aag/hazardos-sub000/charm"
	"github.com/markahope-aag/hazardos-sub000/config"
	"github.com/markahope-aag/hazardos-sub000/connectivity"
	"github.com/markahope-aag/hazardos-sub000/db"
	"github.com/markahope-aag/hazardos-sub000/draft"
	"github.com/markahope-aag/hazardos-sub000/models"
	"github.com/markahope-aag/hazardos-sub000/records"
	"github.com/markahope-aag/hazardos-sub000/remote"
	"github.com/markahope-aag/hazardos-sub000/uploads"
)

type fakeTransfer struct {
	mu    sync.Mutex
	fail  map[string]bool
	gate  chan struct{}
	calls int
}

func (f *fakeTransfer) Upload(ctx context.Context, surveyID string, p models.PhotoRecord) (string, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	fail := f.fail[p.ID]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if fail {
		return "", errors.New("network unreachable")
	}
	return "https://cdn.test/" + surveyID + "/" + p.ID + ".jpg", nil
}

type harness struct {
	c        *Controller
	store    *draft.Store
	cache    *charm.Client
	queue    *uploads.Queue
	remote   *remote.MemoryStore
	signal   *connectivity.Monitor
	sync     *db.SyncStateStore
	transfer *fakeTransfer
}

func newHarness(t *testing.T, online bool, opts ...Option) *harness {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	h := &harness{
		store:    draft.New(),
		cache:    charm.NewTestClient(t),
		remote:   remote.NewMemoryStore(),
		signal:   connectivity.NewMonitor(online),
		sync:     db.NewSyncStateStore(conn),
		transfer: &fakeTransfer{fail: map[string]bool{}},
	}
	h.queue = uploads.New(h.transfer, config.UploadConfig{
		MaxAttempts:     1,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Concurrency:     2,
	}, uploads.WithStore(db.NewUploadQueueStore(conn)))
	t.Cleanup(h.queue.Close)

	h.c = New(Deps{
		Store:  h.store,
		Cache:  h.cache,
		Queue:  h.queue,
		Remote: h.remote,
		Signal: h.signal,
		Sync:   h.sync,
	}, Settings{
		OrganizationID:   "org-1",
		AutosaveInterval: 10 * time.Millisecond,
		SubmitTimeout:    2 * time.Second,
		SwipeThreshold:   50,
	}, opts...)
	t.Cleanup(h.c.Wait)
	return h
}

var jpeg = []byte{0xff, 0xd8, 0xff, 0xe0}

// fillSections completes every section except photos.
func fillSections(t *testing.T, s *draft.Store) {
	t.Helper()
	s.UpdateProperty(func(p *models.PropertyData) {
		p.Address = "12 Elm St"
		p.City = "Madison"
		p.State = "WI"
		p.Zip = "53703"
		p.BuildingType = models.Ptr(models.BuildingResidentialSingle)
		p.YearBuilt = models.Ptr(1965)
	})
	s.UpdateAccess(func(a *models.AccessData) {
		a.HasRestrictions = models.Ptr(false)
		a.ParkingAvailable = models.Ptr(true)
		a.EquipmentAccess = models.Ptr(models.EquipmentAccessEasy)
	})
	s.UpdateEnvironment(func(e *models.EnvironmentData) {
		e.Temperature = models.Ptr(68.0)
		e.Humidity = models.Ptr(40.0)
		e.HasStructuralConcerns = models.Ptr(false)
		e.UtilityShutoffsLocated = models.Ptr(true)
	})
	require.NoError(t, s.ToggleHazardType(models.HazardAsbestos))
	_, err := s.AddMaterial(models.AsbestosMaterial{Quantity: 200, Unit: models.UnitSquareFeet, Friable: true})
	require.NoError(t, err)
}

// addPhotos adds exterior shots; the first `local` of them carry a payload.
func addPhotos(t *testing.T, h *harness, total, local int) {
	t.Helper()
	for i := 0; i < total; i++ {
		p := models.PhotoRecord{ID: "p" + string(rune('1'+i)), Category: models.PhotoExterior}
		if i < local {
			p.Data = jpeg
		} else {
			p.PreviewURL = "https://cdn.test/existing/" + p.ID + ".jpg"
		}
		_, err := h.c.AddPhoto(context.Background(), p)
		require.NoError(t, err)
	}
}

func TestNavigation(t *testing.T) {
	h := newHarness(t, false)

	pos := h.c.Position()
	assert.Equal(t, models.SectionProperty, pos.Section)
	assert.True(t, pos.IsFirst)

	assert.Equal(t, models.SectionProperty, h.c.Back().Section)

	pos, v := h.c.Next()
	assert.Equal(t, models.SectionAccess, pos.Section)
	assert.False(t, v.IsValid)
	assert.False(t, h.store.Validation()[models.SectionProperty].IsValid)
	assert.False(t, h.store.IsDirty())

	pos, err := h.c.JumpTo(models.SectionReview)
	require.NoError(t, err)
	assert.True(t, pos.IsLast)
	pos, _ = h.c.Next()
	assert.Equal(t, models.SectionReview, pos.Section)

	_, err = h.c.JumpTo("garage")
	assert.Error(t, err)
	assert.Equal(t, models.SectionPhotos, h.c.Back().Section)
}

func TestSwipe(t *testing.T) {
	h := newHarness(t, false)

	_, moved := h.c.Swipe(-30)
	assert.False(t, moved)
	_, moved = h.c.Swipe(-50)
	assert.False(t, moved)

	pos, moved := h.c.Swipe(-51)
	assert.True(t, moved)
	assert.Equal(t, models.SectionAccess, pos.Section)

	pos, moved = h.c.Swipe(80)
	assert.True(t, moved)
	assert.Equal(t, models.SectionProperty, pos.Section)

	_, moved = h.c.Swipe(80)
	assert.False(t, moved)
}

func TestSaveOfflineKeepsRemoteStale(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	h.store.SetNotes("north wing only")

	require.NoError(t, h.c.Save(ctx))

	id, ok := h.store.SurveyID()
	require.True(t, ok)
	assert.False(t, h.store.IsDirty())
	assert.NotNil(t, h.store.Snapshot().LastSavedAt)
	assert.Equal(t, 0, h.remote.Len())

	data, err := h.cache.LoadDraft(id)
	require.NoError(t, err)
	cached, err := draft.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "north wing only", cached.Notes)
	assert.False(t, cached.IsDirty)

	state, err := h.sync.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.True(t, state.RemoteStale)
	assert.False(t, state.SubmitPending)
}

func TestSaveOnlineSyncsRemote(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	h.store.SetNotes("attic")

	require.NoError(t, h.c.Save(ctx))
	id, _ := h.store.SurveyID()

	rec, err := h.remote.Get(ctx, "org-1", id)
	require.NoError(t, err)
	assert.Equal(t, records.StatusInProgress, rec.Status)
	assert.Equal(t, "attic", *rec.Notes)
	assert.False(t, h.c.Status().RemoteStale)
}

func TestRemoteSaveFailureRetriedOnNextTick(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	h.remote.SetFailure(&remote.APIError{StatusCode: 503, Message: "backend down"})
	h.store.SetNotes("basement")

	err := h.c.Save(ctx)
	require.Error(t, err)
	assert.Equal(t, "backend down", h.c.SyncError())
	assert.False(t, h.store.IsDirty(), "local save still succeeded")

	id, _ := h.store.SurveyID()
	state, err := h.sync.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, state.ErrorMessage)
	assert.Equal(t, "backend down", *state.ErrorMessage)

	h.remote.SetFailure(nil)
	h.c.autosave(ctx)

	assert.Empty(t, h.c.SyncError())
	assert.Equal(t, 1, h.remote.Len())
	state, err = h.sync.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, state.ErrorMessage)
}

func TestAutosaveSkipsCleanDraft(t *testing.T) {
	h := newHarness(t, true)
	h.c.autosave(context.Background())
	_, ok := h.store.SurveyID()
	assert.False(t, ok)
	assert.Equal(t, 0, h.remote.Len())
}

func TestRunAutosavesDirtyDraft(t *testing.T) {
	h := newHarness(t, false)
	h.store.SetNotes("garage")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.c.Run(ctx) }()

	require.Eventually(t, func() bool { return !h.store.IsDirty() }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestUploadedPhotoReplacesPayload(t *testing.T) {
	h := newHarness(t, true)
	addPhotos(t, h, 1, 1)
	h.c.Wait()

	p, ok := h.store.Photo("p1")
	require.True(t, ok)
	assert.True(t, p.IsUploaded())
	id, _ := h.store.SurveyID()
	assert.Equal(t, "https://cdn.test/"+id+"/p1.jpg", p.PreviewURL)
}

func TestRemovePhotoDropsQueueEntry(t *testing.T) {
	h := newHarness(t, false)
	addPhotos(t, h, 2, 2)
	id, _ := h.store.SurveyID()
	require.Equal(t, 2, h.queue.PendingCount(id))

	require.NoError(t, h.c.RemovePhoto(context.Background(), "p1"))
	assert.Equal(t, 1, h.queue.PendingCount(id))
	assert.Len(t, h.store.Photos(), 1)
}

func TestSubmitIncomplete(t *testing.T) {
	h := newHarness(t, true)
	fillSections(t, h.store)
	addPhotos(t, h, 1, 0)

	res := h.c.Submit(context.Background())
	assert.Equal(t, OutcomeIncomplete, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrIncompleteSections)
	assert.Equal(t, []models.SurveySection{models.SectionPhotos, models.SectionReview}, res.InvalidSections)
	assert.Equal(t, []string{"3 more exterior photos required"}, h.store.Validation()[models.SectionPhotos].Errors)
	assert.Equal(t, 0, h.remote.Len())
}

func TestSubmitOfflineIsSoftSuccess(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	fillSections(t, h.store)
	addPhotos(t, h, 4, 2)
	id, _ := h.store.SurveyID()

	res := h.c.Submit(ctx)
	assert.Equal(t, OutcomeSavedOffline, res.Outcome)
	assert.True(t, res.OK())
	assert.Equal(t, "Saved locally. Will submit when online.", res.Message)

	got, ok := h.store.SurveyID()
	assert.True(t, ok)
	assert.Equal(t, id, got)
	assert.Equal(t, "12 Elm St", h.store.Property().Address)
	assert.Equal(t, 2, h.queue.Counts(id).Pending)
	assert.Equal(t, 0, h.transfer.calls)
	assert.Equal(t, 0, h.remote.Len())

	state, err := h.sync.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, state.SubmitPending)
	assert.Equal(t, db.SyncStatusPendingSubmit, state.Status)
}

func TestSubmitAbortsOnFailedPhoto(t *testing.T) {
	h := newHarness(t, true)
	fillSections(t, h.store)
	h.transfer.fail["p2"] = true
	addPhotos(t, h, 4, 4)
	h.c.Wait()

	res := h.c.Submit(context.Background())
	assert.Equal(t, OutcomePhotosFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrPhotosFailed)
	assert.Equal(t, 1, res.FailedPhotos)
	assert.Equal(t, "1 photo(s) failed to upload. Please retry.", res.Message)
	assert.Equal(t, 0, h.remote.Len())
	assert.Equal(t, "12 Elm St", h.store.Property().Address)
}

func TestSubmitSuccessClearsQueueAndResets(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	fillSections(t, h.store)
	addPhotos(t, h, 4, 3)
	id, _ := h.store.SurveyID()
	require.NoError(t, h.c.Save(ctx))

	res := h.c.Submit(ctx)
	require.Equal(t, OutcomeSubmitted, res.Outcome, res.Message)
	assert.Equal(t, id, res.SurveyID)
	assert.Equal(t, "org-1", res.OrganizationID)

	assert.Empty(t, h.queue.Entries(id))
	_, ok := h.store.SurveyID()
	assert.False(t, ok)
	assert.False(t, h.store.IsDirty())
	assert.Equal(t, models.NewSurveyDraft().Property, h.store.Property())

	rec, err := h.remote.Get(ctx, "org-1", id)
	require.NoError(t, err)
	assert.Equal(t, records.StatusSubmitted, rec.Status)
	assert.NotNil(t, rec.SubmittedAt)
	require.Len(t, rec.PhotoMetadata, 4)
	for _, p := range rec.PhotoMetadata {
		require.NotNil(t, p.URL)
	}
	require.NotNil(t, rec.HazardAssessments.Asbestos)
	assert.True(t, rec.HazardAssessments.Asbestos.EPANotificationRequired)

	_, err = h.cache.LoadDraft(id)
	assert.ErrorIs(t, err, charm.ErrNotFound)

	state, err := h.sync.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, db.SyncStatusSubmitted, state.Status)
	assert.False(t, state.SubmitPending)
}

func TestSubmitSurfacesRemoteError(t *testing.T) {
	h := newHarness(t, true)
	fillSections(t, h.store)
	addPhotos(t, h, 4, 0)
	h.remote.SetFailure(&remote.APIError{StatusCode: 422, Message: "customer is archived"})

	res := h.c.Submit(context.Background())
	assert.Equal(t, OutcomeRemoteFailed, res.Outcome)
	assert.Equal(t, "customer is archived", res.Message)
	assert.ErrorIs(t, res.Err, ErrRemoteSubmit)
	assert.Equal(t, "customer is archived", h.c.SyncError())
	assert.Equal(t, "12 Elm St", h.store.Property().Address)

	h.remote.SetFailure(errors.New("connection reset"))
	res = h.c.Submit(context.Background())
	assert.Equal(t, "Failed to submit survey. Please try again.", res.Message)
}

func TestSubmitUploadTimeout(t *testing.T) {
	h := newHarness(t, false)
	h.c.settings.SubmitTimeout = 20 * time.Millisecond
	fillSections(t, h.store)
	addPhotos(t, h, 4, 1)
	id, _ := h.store.SurveyID()

	gate := make(chan struct{})
	h.transfer.mu.Lock()
	h.transfer.gate = gate
	h.transfer.mu.Unlock()
	h.signal.Set(true)

	res := h.c.Submit(context.Background())
	assert.Equal(t, OutcomeUploadTimeout, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrUploadTimeout)
	assert.Equal(t, 1, res.PendingPhotos)
	require.Eventually(t, func() bool { return h.queue.Counts(id).Uploading == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, h.remote.Len())

	close(gate)
	h.c.Wait()
	assert.Equal(t, 1, h.queue.Counts(id).Uploaded)
}

func TestExitChoices(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	assert.Equal(t, ExitAllowed, h.c.RequestExit())

	h.store.SetNotes("roof")
	assert.Equal(t, ExitNeedsChoice, h.c.RequestExit())

	exit, err := h.c.ResolveExit(ctx, ContinueEditing)
	require.NoError(t, err)
	assert.False(t, exit)
	assert.True(t, h.store.IsDirty())

	exit, err = h.c.ResolveExit(ctx, SaveAndExit)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Equal(t, ExitAllowed, h.c.RequestExit())
	id, _ := h.store.SurveyID()
	_, err = h.cache.LoadDraft(id)
	require.NoError(t, err)
	assert.Equal(t, 1, h.remote.Len())

	h.store.SetNotes("roof and attic")
	exit, err = h.c.ResolveExit(ctx, DiscardAndExit)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.False(t, h.store.IsDirty())
	_, err = h.cache.LoadDraft(id)
	assert.ErrorIs(t, err, charm.ErrNotFound)
}

func TestResumeRestoresDraftAndFlags(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	fillSections(t, h.store)
	addPhotos(t, h, 4, 0)
	res := h.c.Submit(ctx)
	require.Equal(t, OutcomeSavedOffline, res.Outcome)

	h.store.Reset()
	h.c.setFlags(false, false)

	require.NoError(t, h.c.Resume(ctx, res.SurveyID))
	id, _ := h.store.SurveyID()
	assert.Equal(t, res.SurveyID, id)
	assert.Equal(t, "Madison", h.store.Property().City)
	st := h.c.Status()
	assert.True(t, st.SubmitPending)
	assert.True(t, st.RemoteStale)
}

func TestSyncRequestCompletesDeferredSubmit(t *testing.T) {
	results := make(chan SubmitResult, 1)
	h := newHarness(t, false, WithSubmitHook(func(r SubmitResult) { results <- r }))
	fillSections(t, h.store)
	addPhotos(t, h, 4, 2)
	id, _ := h.store.SurveyID()
	require.Equal(t, OutcomeSavedOffline, h.c.Submit(context.Background()).Outcome)

	h.signal.Set(true)
	h.signal.SyncNow()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.c.Run(ctx) }()

	select {
	case r := <-results:
		assert.Equal(t, OutcomeSubmitted, r.Outcome, r.Message)
	case <-time.After(3 * time.Second):
		t.Fatal("deferred submit never ran")
	}
	rec, err := h.remote.Get(context.Background(), "org-1", id)
	require.NoError(t, err)
	assert.Equal(t, records.StatusSubmitted, rec.Status)
}

func TestUploadsForClosedSurveyReachItsDraft(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	fillSections(t, h.store)
	addPhotos(t, h, 4, 4)
	first, _ := h.store.SurveyID()
	require.NoError(t, h.c.Save(ctx))

	h.c.NewSurvey("")
	require.NoError(t, h.c.Save(ctx))
	h.signal.Set(true)
	h.c.Flush(ctx)
	require.Equal(t, 4, h.queue.Counts(first).Uploaded)

	data, err := h.cache.LoadDraft(first)
	require.NoError(t, err)
	cached, err := draft.Decode(data)
	require.NoError(t, err)
	require.Len(t, cached.Photos, 4)
	for _, p := range cached.Photos {
		assert.False(t, p.HasPayload(), "cached photo %s kept its payload", p.ID)
		assert.Equal(t, "https://cdn.test/"+first+"/"+p.ID+".jpg", p.PreviewURL)
	}

	require.NoError(t, h.c.Resume(ctx, first))
	res := h.c.Submit(ctx)
	require.Equal(t, OutcomeSubmitted, res.Outcome, res.Message)

	rec, err := h.remote.Get(ctx, "org-1", first)
	require.NoError(t, err)
	require.Len(t, rec.PhotoMetadata, 4)
	for _, m := range rec.PhotoMetadata {
		require.NotNil(t, m.URL, "photo %s submitted without a URL", m.ID)
		assert.Contains(t, *m.URL, first)
	}
}

func TestResumeAppliesFinishedUploads(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	fillSections(t, h.store)
	addPhotos(t, h, 4, 4)
	id, _ := h.store.SurveyID()
	require.Equal(t, uploads.WaitDrained, h.queue.WaitForUploads(ctx, id, 2*time.Second))

	// a cached copy written before the uploads landed
	stale := h.store.Snapshot()
	for i := range stale.Photos {
		stale.Photos[i].Data = jpeg
		stale.Photos[i].PreviewURL = ""
	}
	data, err := draft.Encode(stale)
	require.NoError(t, err)
	require.NoError(t, h.cache.SaveDraft(id, data))

	h.store.Reset()
	require.NoError(t, h.c.Resume(ctx, id))
	for _, p := range h.store.Photos() {
		assert.True(t, p.IsUploaded(), "photo %s should carry its uploaded URL", p.ID)
	}
}

func TestSubmitRefusesPhotosStillHoldingData(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	fillSections(t, h.store)
	addPhotos(t, h, 4, 0)
	id, _ := h.store.SurveyID()

	// a payload the queue never saw
	h.store.AddPhoto(models.PhotoRecord{ID: "p9", Category: models.PhotoInterior, Data: jpeg})

	res := h.c.Submit(ctx)
	require.Equal(t, OutcomePhotosFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrPhotosNotUploaded)
	assert.Equal(t, 1, res.PendingPhotos)
	assert.Equal(t, 0, h.remote.Len())

	_, queued := h.queue.Entry(id, "p9")
	assert.True(t, queued, "the unsent photo should be queued again")

	require.Equal(t, uploads.WaitDrained, h.queue.WaitForUploads(ctx, id, 2*time.Second))
	res = h.c.Submit(ctx)
	assert.Equal(t, OutcomeSubmitted, res.Outcome, res.Message)
}

func TestRunShutdownCancelsBackgroundSubmit(t *testing.T) {
	results := make(chan SubmitResult, 1)
	h := newHarness(t, false, WithSubmitHook(func(r SubmitResult) { results <- r }))
	h.c.settings.SubmitTimeout = time.Minute
	h.transfer.gate = make(chan struct{})
	fillSections(t, h.store)
	addPhotos(t, h, 4, 2)
	require.Equal(t, OutcomeSavedOffline, h.c.Submit(context.Background()).Outcome)

	h.signal.Set(true)
	h.signal.SyncNow()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.c.Run(ctx) }()

	require.Eventually(t, func() bool {
		h.transfer.mu.Lock()
		defer h.transfer.mu.Unlock()
		return h.transfer.calls > 0
	}, 2*time.Second, 5*time.Millisecond, "reconnect never started uploading")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return while a deferred submit was waiting on uploads")
	}

	select {
	case r := <-results:
		assert.False(t, r.OK())
	default:
	}
	assert.Equal(t, 0, h.remote.Len())
}

func TestNewSurveyScopesToOrganization(t *testing.T) {
	h := newHarness(t, false)
	id := h.c.NewSurvey("cust-9")
	assert.NotEmpty(t, id)
	snap := h.store.Snapshot()
	require.NotNil(t, snap.CustomerID)
	assert.Equal(t, "cust-9", *snap.CustomerID)
	require.NotNil(t, snap.OrganizationID)
	assert.Equal(t, "org-1", *snap.OrganizationID)
}

func TestOutcomeStrings(t *testing.T) {
	assert.Equal(t, "saved_offline", OutcomeSavedOffline.String())
	assert.Equal(t, "photos_failed", OutcomePhotosFailed.String())
	assert.Equal(t, "discard", DiscardAndExit.String())
}
