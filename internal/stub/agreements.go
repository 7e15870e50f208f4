package stub

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"pactline/internal/domain"
)

// registerAgreements mounts the agreement CRUD under both /agreements
// and the legacy /contracts alias. Same handlers, same dataset.
func registerAgreements(api huma.API, d *Dataset) {
	for _, mount := range []struct{ prefix, tag string }{
		{"/agreements", "agreement"},
		{"/contracts", "contract"},
	} {
		registerAgreementCRUD(api, d, mount.prefix, mount.tag)
	}
}

func registerAgreementCRUD(api huma.API, d *Dataset, prefix, tag string) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-" + tag,
		Method:        http.MethodPost,
		Path:          prefix,
		Summary:       "Create agreement",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body domain.AgreementCreate
	}) (*struct {
		Body domain.Agreement
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, orgID, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		if input.Body.Title == "" {
			return nil, badRequest("title is required")
		}
		number := input.Body.AgreementNumber
		if number == "" {
			number = d.nextAgreementNumber()
		}
		for _, a := range d.agreements {
			if a.OrganizationID == orgID && a.AgreementNumber == number {
				return nil, conflict("Agreement number already exists")
			}
		}
		currency := input.Body.Currency
		if currency == "" {
			currency = "USD"
		}
		a := &domain.Agreement{
			ID:              newID(),
			OrganizationID:  orgID,
			Title:           input.Body.Title,
			AgreementNumber: number,
			AgreementType:   input.Body.AgreementType,
			Status:          domain.AgreementDraft,
			Value:           input.Body.Value,
			Currency:        currency,
			EffectiveDate:   input.Body.EffectiveDate,
			ExpirationDate:  input.Body.ExpirationDate,
			Metadata:        input.Body.Metadata,
			CreatedBy:       acct.ID,
			CreatedAt:       d.now(),
			UpdatedAt:       d.now(),
		}
		d.agreements[a.ID] = a
		return &struct {
			Body domain.Agreement
		}{Body: *a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-" + tag + "s",
		Method:      http.MethodGet,
		Path:        prefix,
		Summary:     "List agreements",
	}, func(ctx context.Context, input *struct {
		Status    string `query:"status"`
		Search    string `query:"search"`
		StartDate string `query:"start_date"`
		EndDate   string `query:"end_date"`
		Page      int    `query:"page"`
		Limit     int    `query:"limit"`
	}) (*struct {
		Body page[domain.Agreement]
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		_, orgID, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		var out []domain.Agreement
		for _, a := range d.sortedAgreements(orgID) {
			if input.Status != "" && a.Status != input.Status {
				continue
			}
			if !matchesSearch(a, input.Search) {
				continue
			}
			if input.StartDate != "" && a.EffectiveDate != "" && a.EffectiveDate < input.StartDate {
				continue
			}
			if input.EndDate != "" && a.EffectiveDate != "" && a.EffectiveDate > input.EndDate {
				continue
			}
			out = append(out, *a)
		}
		total := len(out)
		limit := input.Limit
		if limit <= 0 {
			limit = 20
		}
		skip := 0
		if input.Page > 1 {
			skip = (input.Page - 1) * limit
		}
		return &struct {
			Body page[domain.Agreement]
		}{Body: listBody(paginate(out, skip, limit), total)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-" + tag,
		Method:      http.MethodGet,
		Path:        prefix + "/{agreement_id}",
		Summary:     "Get agreement",
	}, func(ctx context.Context, input *struct {
		AgreementID string `path:"agreement_id"`
	}) (*struct {
		Body domain.AgreementDetail
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		a, authErr := d.agreementForCaller(ctx, input.AgreementID)
		if authErr != nil {
			return nil, authErr
		}
		return &struct {
			Body domain.AgreementDetail
		}{Body: domain.AgreementDetail{Agreement: *a}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-" + tag,
		Method:      http.MethodPut,
		Path:        prefix + "/{agreement_id}",
		Summary:     "Update agreement",
	}, func(ctx context.Context, input *struct {
		AgreementID string `path:"agreement_id"`
		Body        domain.AgreementUpdate
	}) (*struct {
		Body domain.Agreement
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		a, authErr := d.agreementForCaller(ctx, input.AgreementID)
		if authErr != nil {
			return nil, authErr
		}
		if input.Body.Status != nil {
			if !transitionAllowed(a.Status, *input.Body.Status) {
				return nil, conflict(fmt.Sprintf("Cannot transition agreement from %s to %s", a.Status, *input.Body.Status))
			}
			a.Status = *input.Body.Status
		}
		if input.Body.Title != nil {
			a.Title = *input.Body.Title
		}
		if input.Body.EffectiveDate != nil {
			a.EffectiveDate = *input.Body.EffectiveDate
		}
		if input.Body.ExpirationDate != nil {
			a.ExpirationDate = *input.Body.ExpirationDate
		}
		if input.Body.Value != nil {
			a.Value = input.Body.Value
		}
		if input.Body.Metadata != nil {
			a.Metadata = input.Body.Metadata
		}
		a.UpdatedAt = d.now()
		return &struct {
			Body domain.Agreement
		}{Body: *a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-" + tag,
		Method:      http.MethodDelete,
		Path:        prefix + "/{agreement_id}",
		Summary:     "Delete agreement",
	}, func(ctx context.Context, input *struct {
		AgreementID string `path:"agreement_id"`
	}) (*struct {
		Body messageBody
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		a, authErr := d.agreementForCaller(ctx, input.AgreementID)
		if authErr != nil {
			return nil, authErr
		}
		delete(d.agreements, a.ID)
		for id, doc := range d.documents {
			if doc.AgreementID == a.ID {
				delete(d.documents, id)
				delete(d.files, id)
			}
		}
		return &struct {
			Body messageBody
		}{Body: messageBody{Message: "Agreement deleted"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: tag + "-approval-status",
		Method:      http.MethodGet,
		Path:        prefix + "/{agreement_id}/approval-status",
		Summary:     "Approval rollup for an agreement",
	}, func(ctx context.Context, input *struct {
		AgreementID string `path:"agreement_id"`
	}) (*struct {
		Body struct {
			AgreementID    string                `json:"agreement_id"`
			ApprovalStatus domain.ApprovalStatus `json:"approval_status"`
		}
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		a, authErr := d.agreementForCaller(ctx, input.AgreementID)
		if authErr != nil {
			return nil, authErr
		}
		status := domain.ApprovalStatus{OverallStatus: "pending"}
		switch a.Status {
		case domain.AgreementApproved, domain.AgreementExecuted:
			status = domain.ApprovalStatus{TotalApprovers: 1, ApprovedCount: 1, OverallStatus: "approved"}
		case domain.AgreementRejected:
			status = domain.ApprovalStatus{TotalApprovers: 1, RejectedCount: 1, OverallStatus: "rejected"}
		case domain.AgreementInReview:
			status = domain.ApprovalStatus{TotalApprovers: 1, PendingCount: 1, OverallStatus: "pending"}
		}
		out := &struct {
			Body struct {
				AgreementID    string                `json:"agreement_id"`
				ApprovalStatus domain.ApprovalStatus `json:"approval_status"`
			}
		}{}
		out.Body.AgreementID = a.ID
		out.Body.ApprovalStatus = status
		return out, nil
	})
}

func (d *Dataset) agreementForCaller(ctx context.Context, id string) (*domain.Agreement, huma.StatusError) {
	_, orgID, authErr := caller(ctx, d)
	if authErr != nil {
		return nil, authErr
	}
	a, ok := d.agreements[id]
	if !ok || a.OrganizationID != orgID {
		return nil, notFound("Agreement not found")
	}
	return a, nil
}

func registerDocuments(api huma.API, d *Dataset) {
	huma.Register(api, huma.Operation{
		OperationID:   "upload-document",
		Method:        http.MethodPost,
		Path:          "/agreements/{agreement_id}/documents",
		Summary:       "Upload a document",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		AgreementID string `path:"agreement_id"`
		RawBody     multipart.Form
	}) (*struct {
		Body domain.Document
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, _, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		a, authErr := d.agreementForCaller(ctx, input.AgreementID)
		if authErr != nil {
			return nil, authErr
		}
		files := input.RawBody.File["file"]
		if len(files) == 0 {
			return nil, badRequest("file is required")
		}
		fh := files[0]
		f, err := fh.Open()
		if err != nil {
			return nil, badRequest("could not read file")
		}
		defer f.Close()
		payload, err := io.ReadAll(f)
		if err != nil {
			return nil, badRequest("could not read file")
		}
		mimeType := fh.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		doc := &domain.Document{
			ID:          newID(),
			AgreementID: a.ID,
			FileName:    fh.Filename,
			FileSize:    int64(len(payload)),
			MimeType:    mimeType,
			UploadedBy:  acct.ID,
			CreatedAt:   d.now(),
		}
		d.documents[doc.ID] = doc
		d.files[doc.ID] = payload
		return &struct {
			Body domain.Document
		}{Body: *doc}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-documents",
		Method:      http.MethodGet,
		Path:        "/agreements/{agreement_id}/documents",
		Summary:     "List an agreement's documents",
	}, func(ctx context.Context, input *struct {
		AgreementID string `path:"agreement_id"`
	}) (*struct {
		Body page[domain.Document]
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		a, authErr := d.agreementForCaller(ctx, input.AgreementID)
		if authErr != nil {
			return nil, authErr
		}
		var out []domain.Document
		for _, doc := range d.documents {
			if doc.AgreementID == a.ID {
				out = append(out, *doc)
			}
		}
		return &struct {
			Body page[domain.Document]
		}{Body: listBody(out, len(out))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "download-document",
		Method:      http.MethodGet,
		Path:        "/agreements/documents/{document_id}/download",
		Summary:     "Download a document",
	}, func(ctx context.Context, input *struct {
		DocumentID string `path:"document_id"`
	}) (*struct {
		ContentType        string `header:"Content-Type"`
		ContentDisposition string `header:"Content-Disposition"`
		Body               []byte
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		doc, authErr := d.documentForCaller(ctx, input.DocumentID)
		if authErr != nil {
			return nil, authErr
		}
		return &struct {
			ContentType        string `header:"Content-Type"`
			ContentDisposition string `header:"Content-Disposition"`
			Body               []byte
		}{
			ContentType:        doc.MimeType,
			ContentDisposition: fmt.Sprintf("attachment; filename=%q", doc.FileName),
			Body:               d.files[doc.ID],
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-document",
		Method:      http.MethodDelete,
		Path:        "/agreements/documents/{document_id}",
		Summary:     "Delete a document",
	}, func(ctx context.Context, input *struct {
		DocumentID string `path:"document_id"`
	}) (*struct {
		Body messageBody
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		doc, authErr := d.documentForCaller(ctx, input.DocumentID)
		if authErr != nil {
			return nil, authErr
		}
		delete(d.documents, doc.ID)
		delete(d.files, doc.ID)
		return &struct {
			Body messageBody
		}{Body: messageBody{Message: "Document deleted"}}, nil
	})
}

func (d *Dataset) documentForCaller(ctx context.Context, id string) (*domain.Document, huma.StatusError) {
	_, orgID, authErr := caller(ctx, d)
	if authErr != nil {
		return nil, authErr
	}
	doc, ok := d.documents[id]
	if !ok {
		return nil, notFound("Document not found")
	}
	a := d.agreements[doc.AgreementID]
	if a == nil || a.OrganizationID != orgID {
		return nil, notFound("Document not found")
	}
	return doc, nil
}
