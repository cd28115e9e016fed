package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"docverify/internal/decision"
	"docverify/internal/document"
	"docverify/internal/extraction"
	"docverify/internal/orientation"
	"docverify/internal/reference"
	"docverify/internal/verification/mocks"
	"docverify/internal/verification/models"
	dErrors "docverify/pkg/domain-errors"
	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/platform/upstream"
)

// =============================================================================
// Verification Service Test Suite
// =============================================================================

type ServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	fetcher    *mocks.MockDocumentFetcher
	rasterizer *mocks.MockRasterizer
	selector   *mocks.MockPageSelector
	verifier   *mocks.MockVerifier
	references *mocks.MockReferenceStore
	results    *mocks.MockResultStore
	refnum     *mocks.MockRefNumLookup
	auditor    *mocks.MockAuditPublisher
	service    *Service
	now        time.Time
	ref        reference.Record
	page       image.Image
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.fetcher = mocks.NewMockDocumentFetcher(s.ctrl)
	s.rasterizer = mocks.NewMockRasterizer(s.ctrl)
	s.selector = mocks.NewMockPageSelector(s.ctrl)
	s.verifier = mocks.NewMockVerifier(s.ctrl)
	s.references = mocks.NewMockReferenceStore(s.ctrl)
	s.results = mocks.NewMockResultStore(s.ctrl)
	s.refnum = mocks.NewMockRefNumLookup(s.ctrl)
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s.page = image.NewGray(image.Rect(0, 0, 4, 4))
	s.ref = reference.Record{
		ApplicantID:  "app-1",
		FirstName:    "Ravi",
		LastName:     "Kumar",
		Gender:       "Male",
		DateOfBirth:  "1990-01-15",
		IDNumber:     reference.EncodeIDNumber("123456789012"),
		DocumentPath: "uploads/app-1.pdf",
	}

	var err error
	s.service, err = New(s.fetcher, s.rasterizer, s.selector, s.verifier,
		WithReferenceStore(s.references),
		WithResultStore(s.results),
		WithRefNumLookup(s.refnum),
		WithAuditPublisher(s.auditor),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
}

func completeResult(rotation orientation.Rotation) orientation.Result {
	return orientation.Result{
		Record: extraction.Record{
			Name:     "Ravi Kumar",
			Gender:   "Male",
			DOB:      "1990-01-15",
			IDNumber: "123456789012",
		},
		Rotation:       rotation,
		Completeness:   extraction.MaxCompleteness,
		MeanConfidence: 0.9,
	}
}

func accepted() decision.MatchResult {
	return decision.MatchResult{
		NameMatch: true, DOBMatch: true, GenderMatch: true, IDMatch: true,
		NameScore: 100,
		Decision:  decision.DecisionAccept,
		Reasons:   []decision.Reason{decision.ReasonAllMatched},
	}
}

func reviewed(reasons ...decision.Reason) decision.MatchResult {
	return decision.MatchResult{
		NameMatch: true, GenderMatch: true, IDMatch: true,
		Decision: decision.DecisionManualReview,
		Reasons:  reasons,
	}
}

func (s *ServiceSuite) expectDocument() {
	s.fetcher.EXPECT().Fetch(gomock.Any(), "uploads/app-1.pdf").Return([]byte("%PDF-1.4"), nil)
	s.rasterizer.EXPECT().Pages(gomock.Any(), []byte("%PDF-1.4")).Return([]image.Image{s.page}, nil)
}

func (s *ServiceSuite) expectAudit(action audit.AuditEvent) {
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(string(action), e.Action)
		return nil
	})
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *ServiceSuite) TestNew() {
	s.Run("nil fetcher returns error", func() {
		_, err := New(nil, s.rasterizer, s.selector, s.verifier)
		s.ErrorContains(err, "document fetcher is required")
	})

	s.Run("nil verifier returns error", func() {
		_, err := New(s.fetcher, s.rasterizer, s.selector, nil)
		s.ErrorContains(err, "verifier is required")
	})
}

// =============================================================================
// Verify Tests
// =============================================================================

func (s *ServiceSuite) TestVerifyAccepted() {
	s.expectDocument()
	s.selector.EXPECT().Select(gomock.Any(), nil, s.page, gomock.Any()).Return(completeResult(orientation.Rotate90), nil)
	s.verifier.EXPECT().Verify(gomock.Any(), s.ref).Return(accepted())
	s.refnum.EXPECT().Lookup(gomock.Any(), "123456789012", "uploads/app-1.pdf").Return("REF-77", nil)
	s.results.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, o *models.Outcome) error {
		s.Equal("123456789012", o.IDNumber)
		s.Equal("REF-77", o.RefNumber)
		return nil
	})
	s.references.EXPECT().MarkVerified(gomock.Any(), "app-1", "REF-77", s.now).Return(nil)
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(string(audit.EventVerificationCompleted), e.Action)
		s.Equal("Accept", e.Decision)
		s.Equal("all fields matched", e.Reason)
		s.Equal(audit.HashSubjectID("123456789012"), e.SubjectIDHash)
		return nil
	})

	outcome, err := s.service.Verify(context.Background(), nil, models.Job{Reference: s.ref})
	s.Require().NoError(err)
	s.Equal("app-1", outcome.ApplicantID)
	s.Equal(orientation.Rotate90, outcome.Rotation)
	s.Equal(0, outcome.Page)
	s.Equal(models.StatusVerified, outcome.Status())
	s.Equal(s.now, outcome.ProcessedAt)
}

func (s *ServiceSuite) TestVerifyManualReviewSkipsRefNumber() {
	s.expectDocument()
	s.selector.EXPECT().Select(gomock.Any(), nil, s.page, gomock.Any()).Return(completeResult(orientation.Rotate0), nil)
	s.verifier.EXPECT().Verify(gomock.Any(), s.ref).Return(reviewed(decision.ReasonDOBMismatch))
	s.results.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	s.expectAudit(audit.EventVerificationCompleted)

	outcome, err := s.service.Verify(context.Background(), nil, models.Job{Reference: s.ref})
	s.Require().NoError(err)
	s.Empty(outcome.RefNumber)
	s.Equal(models.StatusNotVerified, outcome.Status())
}

func (s *ServiceSuite) TestVerifyRefNumberFailureIsNotFatal() {
	s.expectDocument()
	s.selector.EXPECT().Select(gomock.Any(), nil, s.page, gomock.Any()).Return(completeResult(orientation.Rotate0), nil)
	s.verifier.EXPECT().Verify(gomock.Any(), s.ref).Return(accepted())
	s.refnum.EXPECT().Lookup(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("connection refused"))
	s.results.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	s.references.EXPECT().MarkVerified(gomock.Any(), "app-1", "", s.now).Return(nil)
	s.expectAudit(audit.EventVerificationCompleted)

	outcome, err := s.service.Verify(context.Background(), nil, models.Job{Reference: s.ref})
	s.Require().NoError(err)
	s.Empty(outcome.RefNumber)
	s.Equal(decision.DecisionAccept, outcome.Match.Decision)
}

func (s *ServiceSuite) TestVerifySelectsBestPage() {
	pages := []image.Image{
		image.NewGray(image.Rect(0, 0, 1, 1)),
		image.NewGray(image.Rect(0, 0, 2, 2)),
		image.NewGray(image.Rect(0, 0, 3, 3)),
	}
	partial := func(n int, rot orientation.Rotation) orientation.Result {
		return orientation.Result{Completeness: n, Rotation: rot}
	}

	s.Run("highest completeness with ties to earliest page", func() {
		s.SetupTest()
		s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return([]byte("x"), nil)
		s.rasterizer.EXPECT().Pages(gomock.Any(), gomock.Any()).Return(pages, nil)
		gomock.InOrder(
			s.selector.EXPECT().Select(gomock.Any(), nil, pages[0], gomock.Any()).Return(partial(2, orientation.Rotate0), nil),
			s.selector.EXPECT().Select(gomock.Any(), nil, pages[1], gomock.Any()).Return(partial(3, orientation.Rotate180), nil),
			s.selector.EXPECT().Select(gomock.Any(), nil, pages[2], gomock.Any()).Return(partial(3, orientation.Rotate270), nil),
		)
		s.verifier.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(reviewed(decision.ReasonNameMismatch))
		s.results.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		s.expectAudit(audit.EventVerificationCompleted)

		outcome, err := s.service.Verify(context.Background(), nil, models.Job{Reference: s.ref})
		s.Require().NoError(err)
		s.Equal(1, outcome.Page)
		s.Equal(orientation.Rotate180, outcome.Rotation)
	})

	s.Run("complete page stops the scan", func() {
		s.SetupTest()
		s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return([]byte("x"), nil)
		s.rasterizer.EXPECT().Pages(gomock.Any(), gomock.Any()).Return(pages, nil)
		s.selector.EXPECT().Select(gomock.Any(), nil, pages[0], gomock.Any()).Return(completeResult(orientation.Rotate0), nil).Times(1)
		s.verifier.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(reviewed(decision.ReasonNameMismatch))
		s.results.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		s.expectAudit(audit.EventVerificationCompleted)

		outcome, err := s.service.Verify(context.Background(), nil, models.Job{Reference: s.ref})
		s.Require().NoError(err)
		s.Equal(0, outcome.Page)
	})
}

func (s *ServiceSuite) TestVerifyFailures() {
	s.Run("missing location", func() {
		s.SetupTest()
		ref := s.ref
		ref.DocumentPath = ""
		_, err := s.service.Verify(context.Background(), nil, models.Job{Reference: ref})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("document not found", func() {
		s.SetupTest()
		s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).
			Return(nil, upstream.New(upstream.ErrorNotFound, "document_host", "unexpected status 404", nil))
		s.expectAudit(audit.EventVerificationFailed)

		_, err := s.service.Verify(context.Background(), nil, models.Job{Reference: s.ref})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("document too large", func() {
		s.SetupTest()
		s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, document.ErrTooLarge)
		s.expectAudit(audit.EventVerificationFailed)

		_, err := s.service.Verify(context.Background(), nil, models.Job{Reference: s.ref})
		s.True(dErrors.HasCode(err, dErrors.CodeTooLarge))
	})

	s.Run("unreadable document", func() {
		s.SetupTest()
		s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return([]byte("junk"), nil)
		s.rasterizer.EXPECT().Pages(gomock.Any(), gomock.Any()).Return(nil, document.ErrUnsupported)
		s.expectAudit(audit.EventVerificationFailed)

		_, err := s.service.Verify(context.Background(), nil, models.Job{Reference: s.ref})
		s.True(dErrors.HasCode(err, dErrors.CodeUnprocessable))
	})

	s.Run("ocr outage", func() {
		s.SetupTest()
		s.expectDocument()
		s.selector.EXPECT().Select(gomock.Any(), nil, s.page, gomock.Any()).
			Return(orientation.Result{}, upstream.New(upstream.ErrorOutage, "ocr", "request failed", nil))
		s.expectAudit(audit.EventVerificationFailed)

		_, err := s.service.Verify(context.Background(), nil, models.Job{Reference: s.ref})
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("result store failure", func() {
		s.SetupTest()
		s.expectDocument()
		s.selector.EXPECT().Select(gomock.Any(), nil, s.page, gomock.Any()).Return(completeResult(orientation.Rotate0), nil)
		s.verifier.EXPECT().Verify(gomock.Any(), s.ref).Return(reviewed(decision.ReasonGenderMismatch))
		s.results.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
		s.expectAudit(audit.EventVerificationFailed)

		_, err := s.service.Verify(context.Background(), nil, models.Job{Reference: s.ref})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("unknown applicant is not marked", func() {
		s.SetupTest()
		s.expectDocument()
		s.selector.EXPECT().Select(gomock.Any(), nil, s.page, gomock.Any()).Return(completeResult(orientation.Rotate0), nil)
		s.verifier.EXPECT().Verify(gomock.Any(), s.ref).Return(accepted())
		s.refnum.EXPECT().Lookup(gomock.Any(), gomock.Any(), gomock.Any()).Return("REF", nil)
		s.results.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		s.references.EXPECT().MarkVerified(gomock.Any(), "app-1", "REF", s.now).Return(sentinel.ErrNotFound)
		s.expectAudit(audit.EventVerificationCompleted)

		_, err := s.service.Verify(context.Background(), nil, models.Job{Reference: s.ref})
		s.NoError(err)
	})
}

func (s *ServiceSuite) TestVerifyPersistsInTransaction() {
	newTxService := func(txr Transactor) *Service {
		svc, err := New(s.fetcher, s.rasterizer, s.selector, s.verifier,
			WithReferenceStore(s.references),
			WithResultStore(s.results),
			WithAuditPublisher(s.auditor),
			WithTransactor(txr),
			WithClock(func() time.Time { return s.now }),
		)
		s.Require().NoError(err)
		return svc
	}

	s.Run("save and mark share one transaction", func() {
		s.SetupTest()
		txr := mocks.NewMockTransactor(s.ctrl)
		svc := newTxService(txr)
		s.expectDocument()
		s.selector.EXPECT().Select(gomock.Any(), nil, s.page, gomock.Any()).Return(completeResult(orientation.Rotate0), nil)
		s.verifier.EXPECT().Verify(gomock.Any(), s.ref).Return(accepted())
		txr.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, fn func(ctx context.Context) error) error {
				return fn(ctx)
			})
		gomock.InOrder(
			s.results.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil),
			s.references.EXPECT().MarkVerified(gomock.Any(), "app-1", "", s.now).Return(nil),
		)
		s.expectAudit(audit.EventVerificationCompleted)

		_, err := svc.Verify(context.Background(), nil, models.Job{Reference: s.ref})
		s.NoError(err)
	})

	s.Run("transaction failure is a persist failure", func() {
		s.SetupTest()
		txr := mocks.NewMockTransactor(s.ctrl)
		svc := newTxService(txr)
		s.expectDocument()
		s.selector.EXPECT().Select(gomock.Any(), nil, s.page, gomock.Any()).Return(completeResult(orientation.Rotate0), nil)
		s.verifier.EXPECT().Verify(gomock.Any(), s.ref).Return(reviewed(decision.ReasonNameMismatch))
		txr.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(errors.New("begin transaction: conn closed"))
		s.expectAudit(audit.EventVerificationFailed)

		_, err := svc.Verify(context.Background(), nil, models.Job{Reference: s.ref})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// =============================================================================
// Identify Tests
// =============================================================================

func (s *ServiceSuite) TestIdentify() {
	data := []byte("png")

	s.Run("no valid id number", func() {
		s.SetupTest()
		s.rasterizer.EXPECT().Pages(gomock.Any(), data).Return([]image.Image{s.page}, nil)
		s.selector.EXPECT().Select(gomock.Any(), nil, s.page, (*reference.Record)(nil)).
			Return(orientation.Result{Record: extraction.Record{Name: "Ravi Kumar"}, Completeness: 1}, nil)
		s.expectAudit(audit.EventVerificationFailed)

		_, err := s.service.Identify(context.Background(), nil, data)
		s.True(dErrors.HasCode(err, dErrors.CodeUnprocessable))
	})

	s.Run("reference not found", func() {
		s.SetupTest()
		s.rasterizer.EXPECT().Pages(gomock.Any(), data).Return([]image.Image{s.page}, nil)
		s.selector.EXPECT().Select(gomock.Any(), nil, s.page, (*reference.Record)(nil)).Return(completeResult(orientation.Rotate0), nil)
		s.references.EXPECT().FindByIDNumber(gomock.Any(), "123456789012").Return(nil, sentinel.ErrNotFound)
		s.expectAudit(audit.EventReferenceNotFound)

		_, err := s.service.Identify(context.Background(), nil, data)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("re-extracts with the matched reference", func() {
		s.SetupTest()
		s.rasterizer.EXPECT().Pages(gomock.Any(), data).Return([]image.Image{s.page}, nil)
		gomock.InOrder(
			s.selector.EXPECT().Select(gomock.Any(), nil, s.page, (*reference.Record)(nil)).Return(completeResult(orientation.Rotate0), nil),
			s.selector.EXPECT().Select(gomock.Any(), nil, s.page, gomock.Not(gomock.Nil())).Return(completeResult(orientation.Rotate0), nil),
		)
		ref := s.ref
		s.references.EXPECT().FindByIDNumber(gomock.Any(), "123456789012").Return(&ref, nil)
		s.verifier.EXPECT().Verify(gomock.Any(), s.ref).Return(reviewed(decision.ReasonDOBMismatch))
		s.results.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		s.expectAudit(audit.EventDocumentIdentified)

		outcome, err := s.service.Identify(context.Background(), nil, data)
		s.Require().NoError(err)
		s.Equal("app-1", outcome.ApplicantID)
	})

	s.Run("requires reference store", func() {
		s.SetupTest()
		svc, err := New(s.fetcher, s.rasterizer, s.selector, s.verifier)
		s.Require().NoError(err)
		_, err = svc.Identify(context.Background(), nil, data)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

// =============================================================================
// Pipeline Test
// =============================================================================

type staticSource struct {
	lines []extraction.RecognizedLine
}

func (s staticSource) Recognize(context.Context, image.Image) ([]extraction.RecognizedLine, error) {
	return s.lines, nil
}

type bytesFetcher []byte

func (b bytesFetcher) Fetch(context.Context, string) ([]byte, error) { return b, nil }

func TestPipelineWithRealStages(t *testing.T) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(8, 8, color.White), imaging.PNG); err != nil {
		t.Fatal(err)
	}

	clock := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	extractor := extraction.NewExtractor(extraction.WithClock(clock))
	engine, err := decision.NewEngine(decision.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	svc, err := New(bytesFetcher(buf.Bytes()), document.NewRasterizer(0, time.Second, nil), orientation.New(extractor), engine,
		WithClock(clock))
	if err != nil {
		t.Fatal(err)
	}

	source := staticSource{lines: []extraction.RecognizedLine{
		{Text: "Government of India", Position: extraction.Position{X: 10, Y: 5}, Confidence: 0.99},
		{Text: "Ravi Kumar", Position: extraction.Position{X: 10, Y: 20}, Confidence: 0.95},
		{Text: "DOB: 15/01/1990", Position: extraction.Position{X: 10, Y: 30}, Confidence: 0.9},
		{Text: "Male", Position: extraction.Position{X: 10, Y: 40}, Confidence: 0.9},
		{Text: "1234 5678 9012", Position: extraction.Position{X: 10, Y: 60}, Confidence: 0.97},
	}}
	ref := reference.Record{
		ApplicantID: "app-9",
		FirstName:   "Ravi",
		LastName:    "Kumar",
		Gender:      "male",
		DateOfBirth: "15-01-1990",
		IDNumber:    reference.EncodeIDNumber("123456789012"),
	}

	outcome, err := svc.Verify(context.Background(), source, models.Job{Reference: ref, Location: "card.png"})
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Match.Decision != decision.DecisionAccept {
		t.Fatalf("decision = %s (%s), want Accept", outcome.Match.Decision, outcome.Match.Reason())
	}
	if outcome.Rotation != orientation.Rotate0 {
		t.Fatalf("rotation = %d, want 0", outcome.Rotation)
	}
	if outcome.Extracted.DOB != "1990-01-15" {
		t.Fatalf("dob = %q", outcome.Extracted.DOB)
	}

	page, extracted, err := svc.Extract(context.Background(), source, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if page != 0 || extracted.Record.IDNumber != "123456789012" || extracted.Record.DOB != "1990-01-15" {
		t.Fatalf("extract = page %d %+v", page, extracted.Record)
	}
}
