package v1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gosuda/docexport/internal/server/middleware"
	"github.com/gosuda/docexport/internal/wordexport"
)

// maxWordBodyBytes bounds how much of a request body is read before it is
// dropped. Larger bodies are truncated, not rejected.
const maxWordBodyBytes = 1 << 20

// WordInput declares no Body field, so huma never validates the payload.
// Resolve reads it on a best-effort basis; anything that does not decode is
// ignored and the operation still reaches the exporter.
type WordInput struct {
	payload *wordexport.Request
}

func (i *WordInput) Resolve(ctx huma.Context) []error {
	reader := ctx.BodyReader()
	if reader == nil {
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(reader, maxWordBodyBytes))
	if err != nil || len(raw) == 0 {
		return nil
	}

	var req wordexport.Request
	if json.Unmarshal(raw, &req) == nil {
		i.payload = &req
	}
	return nil
}

// WordOutput is never produced: both operations always fail.
type WordOutput struct {
	Body struct {
		DocumentID string `json:"document_id"`
	}
}

const wordBodyDescription = " An optional JSON body ({document_id, title, body}) is accepted and ignored."

func RegisterExportRoutes(api huma.API, exporter WordExporter) {
	huma.Register(api, huma.Operation{
		OperationID: "export-to-word",
		Method:      http.MethodPost,
		Path:        "/exports/word",
		Summary:     "Export a document to Word (disabled)",
		Description: "Word export has been withdrawn. This operation always fails with 501." + wordBodyDescription,
		Tags:        []string{"Word"},
		Errors:      []int{http.StatusNotImplemented},
	}, func(ctx context.Context, input *WordInput) (*WordOutput, error) {
		return nil, mustFail(exporter.ExportToWord(ctx, callerRequest(ctx, input)), "failed to export to Word")
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-word-document",
		Method:      http.MethodPost,
		Path:        "/documents/word",
		Summary:     "Create a Word document (disabled)",
		Description: "Word document creation has been withdrawn. This operation always fails with 501." + wordBodyDescription,
		Tags:        []string{"Word"},
		Errors:      []int{http.StatusNotImplemented},
	}, func(ctx context.Context, input *WordInput) (*WordOutput, error) {
		return nil, mustFail(exporter.CreateWordDocument(ctx, callerRequest(ctx, input)), "failed to create Word document")
	})
}

// callerRequest attaches the authenticated tenant and the chi request id to
// the decoded payload so the exporter can record who called.
func callerRequest(ctx context.Context, input *WordInput) *wordexport.Request {
	req := &wordexport.Request{}
	if input.payload != nil {
		*req = *input.payload
	}
	if tenantID, ok := middleware.TenantIDFromContext(ctx); ok {
		req.TenantID = tenantID
	}
	req.RequestID = chimw.GetReqID(ctx)
	return req
}

// mustFail turns a nil error from an exporter into a 500; there is no
// success response for these routes.
func mustFail(err error, fallback string) error {
	if err == nil {
		return huma.Error500InternalServerError(fallback, errors.New("exporter returned no error"))
	}
	return featureError(err, fallback)
}
