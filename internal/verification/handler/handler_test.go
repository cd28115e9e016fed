package handler

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"docverify/internal/batch"
	"docverify/internal/decision"
	"docverify/internal/extraction"
	"docverify/internal/orientation"
	"docverify/internal/reference"
	"docverify/internal/verification/handler/mocks"
	"docverify/internal/verification/models"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/requestcontext"
	"docverify/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mock_handler.go -package=mocks

type stubEngine struct{}

func (stubEngine) Recognize(context.Context, image.Image) ([]extraction.RecognizedLine, error) {
	return nil, nil
}

func (stubEngine) Close() error { return nil }

const encodedID = "MTIzNDU2Nzg5MDEy" // 123456789012

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	engines *mocks.MockEnginePool
	batch   *mocks.MockBatchRunner
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.engines = mocks.NewMockEnginePool(s.ctrl)
	s.batch = mocks.NewMockBatchRunner(s.ctrl)

	s.router = chi.NewRouter()
	New(s.service, s.engines, s.batch, nil).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) expectEngine() {
	engine := stubEngine{}
	s.engines.EXPECT().Acquire(gomock.Any()).Return(engine, nil)
	s.engines.EXPECT().Release(engine)
}

func acceptedOutcome() *models.Outcome {
	return &models.Outcome{
		ID:          uuid.MustParse("5b0c6c4e-8a37-4c39-9d0f-4f5b1f3f8e21"),
		ApplicantID: "APP-1",
		IDNumber:    "123456789012",
		Extracted: extraction.Record{
			Name:     "Rahul Sharma",
			Gender:   "male",
			DOB:      "1990-05-15",
			IDNumber: "123456789012",
		},
		Match: decision.MatchResult{
			NameMatch: true, DOBMatch: true, GenderMatch: true, IDMatch: true,
			NameScore: 100,
			Decision:  decision.DecisionAccept,
			Reasons:   []decision.Reason{decision.ReasonAllMatched},
		},
		Rotation:       orientation.Rotate90,
		MeanConfidence: 0.91347,
		RefNumber:      "REF-42",
		ProcessedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func pngDocument(t require.TestingT) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

// -----------------------------------------------------------------------------
// POST /verify
// -----------------------------------------------------------------------------

func (s *HandlerSuite) TestVerify() {
	valid := VerifyRequest{
		Document: "uploads/app-1.pdf",
		Reference: reference.Record{
			ApplicantID: "APP-1",
			FirstName:   "Rahul",
			LastName:    "Sharma",
			Gender:      "Male",
			DateOfBirth: "15-05-1990",
			IDNumber:    encodedID,
		},
	}

	s.Run("accepted outcome - 200", func() {
		s.SetupTest()
		s.expectEngine()
		s.service.EXPECT().
			Verify(gomock.Any(), stubEngine{}, models.Job{Reference: valid.Reference, Location: "uploads/app-1.pdf"}).
			Return(acceptedOutcome(), nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify", valid))

		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
		got := testutil.UnmarshalResponse[OutcomeResponse](s.T(), rr)
		s.Equal("APP-1", got.ApplicantID)
		s.Equal("Accept", got.Decision)
		s.Equal("Verified", got.Status)
		s.Equal("all fields matched", got.Reason)
		s.Equal(0.91, got.OCRConfidence)
		s.Equal("15-May-1990", got.ExtractedDOB)
		s.Equal("REF-42", got.RefNumber)
		s.Equal(90, got.Rotation)
		s.Equal("2026-03-01T10:00:00Z", got.ProcessedAt)
	})

	s.Run("request identity reaches the service", func() {
		s.SetupTest()
		s.expectEngine()
		s.service.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ orientation.LineSource, _ models.Job) (*models.Outcome, error) {
				s.Equal("req-7", requestcontext.RequestID(ctx))
				s.Equal("onboarding-service", requestcontext.Subject(ctx))
				return acceptedOutcome(), nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify", valid)
		req = testutil.WithSubject(testutil.WithRequestID(req, "req-7"), "onboarding-service")
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("missing document - 400", func() {
		s.SetupTest()
		req := valid
		req.Document = ""

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify", req))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("path traversal - 400", func() {
		s.SetupTest()
		req := valid
		req.Document = "../../etc/passwd"

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify", req))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("undecodable id number - 400", func() {
		s.SetupTest()
		req := valid
		req.Reference.IDNumber = "%%%"

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify", req))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("no engine available - 503", func() {
		s.SetupTest()
		s.engines.EXPECT().Acquire(gomock.Any()).Return(nil, context.DeadlineExceeded)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify", valid))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, string(dErrors.CodeUnavailable))
	})

	s.Run("document not found - 404", func() {
		s.SetupTest()
		s.expectEngine()
		s.service.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "document not found"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify", valid))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}

// -----------------------------------------------------------------------------
// POST /extract
// -----------------------------------------------------------------------------

func (s *HandlerSuite) TestExtract() {
	s.Run("identified upload - 200", func() {
		s.SetupTest()
		doc := pngDocument(s.T())
		s.expectEngine()
		s.service.EXPECT().Identify(gomock.Any(), stubEngine{}, doc).Return(acceptedOutcome(), nil)

		req := testutil.NewMultipartRequest(s.T(), "/extract", "document", "card.png", doc)
		rr := testutil.DoRequest(s.router, req)

		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
		got := testutil.UnmarshalResponse[OutcomeResponse](s.T(), rr)
		s.Equal("123456789012", got.ExtractedID)
	})

	s.Run("no valid id number - 422", func() {
		s.SetupTest()
		s.expectEngine()
		s.service.EXPECT().Identify(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnprocessable, "aadhaar number not detected or invalid"))

		req := testutil.NewMultipartRequest(s.T(), "/extract", "document", "card.png", pngDocument(s.T()))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, string(dErrors.CodeUnprocessable))
	})

	s.Run("unknown applicant - 404", func() {
		s.SetupTest()
		s.expectEngine()
		s.service.EXPECT().Identify(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "aadhaar number not found"))

		req := testutil.NewMultipartRequest(s.T(), "/extract", "document", "card.png", pngDocument(s.T()))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.Run("wrong field name - 400", func() {
		s.SetupTest()
		req := testutil.NewMultipartRequest(s.T(), "/extract", "file", "card.png", pngDocument(s.T()))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("unsupported content - 400", func() {
		s.SetupTest()
		req := testutil.NewMultipartRequest(s.T(), "/extract", "document", "card.txt", []byte("plain text, not a document"))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("not multipart - 400", func() {
		s.SetupTest()
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/extract", map[string]string{}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})
}

// -----------------------------------------------------------------------------
// POST /batch/run
// -----------------------------------------------------------------------------

func (s *HandlerSuite) TestBatchRun() {
	s.Run("completed - 200", func() {
		s.SetupTest()
		report := &batch.Report{
			Results: []batch.Result{{Job: models.Job{Reference: reference.Record{ApplicantID: "APP-1"}}, Outcome: acceptedOutcome()}},
			Summary: batch.Summary{Total: 1, Accepted: 1, AcceptedPct: 100},
		}
		s.batch.EXPECT().RunStored(gomock.Any()).Return(report, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/batch/run", nil))

		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
		got := testutil.UnmarshalResponse[BatchResponse](s.T(), rr)
		s.Equal("Batch verification completed", got.Message)
		s.Equal(1, got.Summary.Accepted)
		s.Require().Len(got.Results, 1)
		s.Equal("REF-42", got.Results[0].RefNumber)
	})

	s.Run("already running - 409", func() {
		s.SetupTest()
		s.batch.EXPECT().RunStored(gomock.Any()).Return(nil, batch.ErrAlreadyRunning)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/batch/run", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(dErrors.CodeConflict))
	})

	s.Run("store failure - 500", func() {
		s.SetupTest()
		s.batch.EXPECT().RunStored(gomock.Any()).Return(nil, errors.New("connection refused"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/batch/run", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	})
}

func TestRegisterWithoutBatchRunner(t *testing.T) {
	router := chi.NewRouter()
	New(nil, nil, nil, nil).Register(router)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/batch/run", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFromOutcome(t *testing.T) {
	testutil.Given(t, "an outcome with nothing extracted", func(t *testing.T) {
		o := &models.Outcome{Match: decision.MatchResult{
			Decision: decision.DecisionManualReview,
			Reasons:  []decision.Reason{decision.ReasonNameMismatch, decision.ReasonDOBMismatch},
		}}

		testutil.When(t, "it is rendered", func(t *testing.T) {
			got := FromOutcome(o)

			testutil.Then(t, "missing text fields read N/A", func(t *testing.T) {
				assert.Equal(t, "N/A", got.ApplicantID)
				assert.Equal(t, "N/A", got.ExtractedName)
				assert.Equal(t, "N/A", got.ExtractedDOB)
				assert.Equal(t, "N/A", got.ExtractedGender)
				assert.Equal(t, "N/A", got.RefNumber)
				assert.Empty(t, got.ExtractedID)
			})
			testutil.And(t, "the status and joined reasons are reported", func(t *testing.T) {
				assert.Equal(t, "Not Verified", got.Status)
				assert.Equal(t, "name mismatch, dob mismatch", got.Reason)
			})
		})
	})

	testutil.Given(t, "a date of birth that is not ISO formatted", func(t *testing.T) {
		got := FromOutcome(&models.Outcome{Extracted: extraction.Record{DOB: "1990"}})
		testutil.Then(t, "it is passed through", func(t *testing.T) {
			assert.Equal(t, "1990", got.ExtractedDOB)
		})
	})
}
