package assembly

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/talent-tracker/internal/db"
	"github.com/marcus/talent-tracker/internal/ingestion"
	"github.com/marcus/talent-tracker/internal/storage"
)

type stubStore struct {
	results      map[string]json.RawMessage
	stageResults []db.StageResult
	profile      *db.CandidateProfile
	preferences  *db.CandidatePreferences
}

func (s *stubStore) LatestSucceededResult(_ context.Context, _ uuid.UUID, promptName string) (json.RawMessage, error) {
	return s.results[promptName], nil
}

func (s *stubStore) ListStageResults(_ context.Context, _ uuid.UUID, _ string) ([]db.StageResult, error) {
	return s.stageResults, nil
}

func (s *stubStore) GetProfile(_ context.Context, _ uuid.UUID) (*db.CandidateProfile, error) {
	return s.profile, nil
}

func (s *stubStore) GetPreferences(_ context.Context, _ uuid.UUID) (*db.CandidatePreferences, error) {
	return s.preferences, nil
}

type stubFetcher struct {
	blobs map[string]*storage.Blob
	err   error
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*storage.Blob, error) {
	if f.err != nil {
		return nil, f.err
	}
	blob, ok := f.blobs[url]
	if !ok {
		return nil, &storage.NotFoundError{URL: url}
	}
	return blob, nil
}

func testCandidate() *db.Candidate {
	return &db.Candidate{ID: uuid.New(), Name: "Dana Rivera"}
}

func testAttachment(candidateID uuid.UUID) *db.Attachment {
	return &db.Attachment{
		ID:          uuid.New(),
		CandidateID: candidateID,
		Type:        db.AttachmentResume,
		FileURL:     "https://blobs.example.com/resume.txt",
	}
}

func TestAssemble_AttachmentTextStored(t *testing.T) {
	cand := testCandidate()
	att := testAttachment(cand.ID)
	text := "Ten years of Go experience."
	att.ExtractedText = &text

	a := NewAssembler(&stubStore{}, &stubFetcher{})
	bundle, err := a.Assemble(context.Background(), []string{SourceAttachmentText}, att, cand, "screening")
	require.NoError(t, err)

	content, ok := bundle.Lookup(SourceAttachmentText)
	require.True(t, ok)
	assert.Equal(t, text, content)
}

func TestAssemble_AttachmentTextFetched(t *testing.T) {
	cand := testCandidate()
	att := testAttachment(cand.ID)

	fetcher := &stubFetcher{blobs: map[string]*storage.Blob{
		att.FileURL: {URL: att.FileURL, Content: []byte("Fetched resume text."), ContentType: "text/plain"},
	}}
	a := NewAssembler(&stubStore{}, fetcher)

	bundle, err := a.Assemble(context.Background(), []string{SourceAttachmentText}, att, cand, "screening")
	require.NoError(t, err)

	content, ok := bundle.Lookup(SourceAttachmentText)
	require.True(t, ok)
	assert.Equal(t, "Fetched resume text.", content)
}

func TestAssemble_AttachmentBlobMissing(t *testing.T) {
	cand := testCandidate()
	att := testAttachment(cand.ID)

	a := NewAssembler(&stubStore{}, &stubFetcher{})
	_, err := a.Assemble(context.Background(), []string{SourceAttachmentText}, att, cand, "screening")

	var missing *MissingContextError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, SourceAttachmentText, missing.Source)
}

func TestAssemble_AttachmentFetchErrorPropagates(t *testing.T) {
	cand := testCandidate()
	att := testAttachment(cand.ID)

	fetchErr := &storage.FetchError{URL: att.FileURL, Message: "connection reset"}
	a := NewAssembler(&stubStore{}, &stubFetcher{err: fetchErr})

	_, err := a.Assemble(context.Background(), []string{SourceAttachmentText}, att, cand, "screening")

	var missing *MissingContextError
	assert.False(t, errors.As(err, &missing), "transient failures must stay retryable")
	var fe *storage.FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestAssemble_NilAttachment(t *testing.T) {
	cand := testCandidate()

	a := NewAssembler(&stubStore{}, &stubFetcher{})
	_, err := a.Assemble(context.Background(), []string{SourceAttachmentText}, nil, cand, "screening")

	var missing *MissingContextError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Reason, "no attachment")
}

func TestAssemble_Profile(t *testing.T) {
	cand := testCandidate()
	store := &stubStore{profile: &db.CandidateProfile{
		CandidateID: cand.ID,
		Fields:      map[string]any{"years_experience": 10},
	}}

	a := NewAssembler(store, &stubFetcher{})
	bundle, err := a.Assemble(context.Background(), []string{SourceProfile}, nil, cand, "screening")
	require.NoError(t, err)

	content, ok := bundle.Lookup(SourceProfile)
	require.True(t, ok)
	assert.Contains(t, content, "years_experience")
}

func TestAssemble_ProfileMissing(t *testing.T) {
	cand := testCandidate()

	a := NewAssembler(&stubStore{}, &stubFetcher{})
	_, err := a.Assemble(context.Background(), []string{SourceProfile}, nil, cand, "screening")

	var missing *MissingContextError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, SourceProfile, missing.Source)
}

func TestAssemble_PreferencesMissingWhenEmpty(t *testing.T) {
	cand := testCandidate()
	store := &stubStore{preferences: &db.CandidatePreferences{
		CandidateID: cand.ID,
		Fields:      map[string]any{},
	}}

	a := NewAssembler(store, &stubFetcher{})
	_, err := a.Assemble(context.Background(), []string{SourcePreferences}, nil, cand, "screening")

	var missing *MissingContextError
	require.ErrorAs(t, err, &missing)
}

func TestAssemble_PromptDependency(t *testing.T) {
	cand := testCandidate()
	store := &stubStore{results: map[string]json.RawMessage{
		"extract_profile": json.RawMessage(`{"years_experience":5}`),
	}}

	a := NewAssembler(store, &stubFetcher{})
	bundle, err := a.Assemble(context.Background(), []string{"prompt:extract_profile"}, nil, cand, "screening")
	require.NoError(t, err)

	content, ok := bundle.Lookup("prompt:extract_profile")
	require.True(t, ok)
	assert.JSONEq(t, `{"years_experience":5}`, content)
}

func TestAssemble_PromptDependencyMissing(t *testing.T) {
	cand := testCandidate()

	a := NewAssembler(&stubStore{}, &stubFetcher{})
	_, err := a.Assemble(context.Background(), []string{"prompt:never_ran"}, nil, cand, "screening")

	var missing *MissingContextError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Reason, "never_ran")
}

func TestAssemble_StageResults(t *testing.T) {
	cand := testCandidate()
	store := &stubStore{stageResults: []db.StageResult{
		{PromptName: "extract_profile", Result: json.RawMessage(`{"years_experience":5}`)},
		{PromptName: "assess_fit", Result: json.RawMessage(`{"summary":"Strong."}`)},
	}}

	a := NewAssembler(store, &stubFetcher{})
	bundle, err := a.Assemble(context.Background(), []string{SourceStageResults}, nil, cand, "screening")
	require.NoError(t, err)

	require.Len(t, bundle.Sections, 2)
	assert.Contains(t, bundle.Render(), `Result of "extract_profile"`)
}

func TestAssemble_StageResultsEmpty(t *testing.T) {
	cand := testCandidate()

	a := NewAssembler(&stubStore{}, &stubFetcher{})
	_, err := a.Assemble(context.Background(), []string{SourceStageResults}, nil, cand, "screening")

	var missing *MissingContextError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Reason, "screening")
}

func TestAssemble_UnknownSource(t *testing.T) {
	cand := testCandidate()

	a := NewAssembler(&stubStore{}, &stubFetcher{})
	_, err := a.Assemble(context.Background(), []string{"weather_report"}, nil, cand, "screening")

	var missing *MissingContextError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Reason, "unknown")
}

func TestAttachmentText_UnsupportedContentType(t *testing.T) {
	cand := testCandidate()
	att := testAttachment(cand.ID)

	fetcher := &stubFetcher{blobs: map[string]*storage.Blob{
		att.FileURL: {URL: att.FileURL, Content: []byte{0x00, 0x01, 0x02}, ContentType: "application/octet-stream"},
	}}
	a := NewAssembler(&stubStore{}, fetcher)

	_, err := a.AttachmentText(context.Background(), att)

	var missing *MissingContextError
	require.ErrorAs(t, err, &missing)
	var unsupported *ingestion.UnsupportedContentError
	assert.False(t, errors.As(err, &unsupported), "unsupported content is wrapped as missing context")
}

func TestPromptDependency(t *testing.T) {
	name, ok := PromptDependency("prompt:sentiment")
	assert.True(t, ok)
	assert.Equal(t, "sentiment", name)

	_, ok = PromptDependency("prompt:")
	assert.False(t, ok)

	_, ok = PromptDependency("profile")
	assert.False(t, ok)
}

func TestKnownSource(t *testing.T) {
	assert.True(t, KnownSource(SourceAttachmentText))
	assert.True(t, KnownSource(SourceStageResults))
	assert.True(t, KnownSource("prompt:extract_profile"))
	assert.False(t, KnownSource("prompt:"))
	assert.False(t, KnownSource("weather_report"))
}
