package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/rkfood/rkfood-backend/pkg/errors"
)

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"hello": "world"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var payload struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data["hello"] != "world" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestWriteErrorMapsCodeToStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   pkgerrors.Code
	}{
		{name: "validation", err: pkgerrors.New(pkgerrors.CodeValidation, "bad input"), status: http.StatusBadRequest, code: pkgerrors.CodeValidation},
		{name: "not found", err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found"), status: http.StatusNotFound, code: pkgerrors.CodeNotFound},
		{name: "empty cart", err: pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty"), status: http.StatusUnprocessableEntity, code: pkgerrors.CodeEmptyCart},
		{name: "quantity cap", err: pkgerrors.New(pkgerrors.CodeQuantityLimit, "max 5 units per item"), status: http.StatusUnprocessableEntity, code: pkgerrors.CodeQuantityLimit},
		{name: "untyped is internal", err: errors.New("boom"), status: http.StatusInternalServerError, code: pkgerrors.CodeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			var payload struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if payload.Error.Code != string(tc.code) {
				t.Fatalf("expected code %s, got %s", tc.code, payload.Error.Code)
			}
		})
	}
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeInternal, "pg connection string leaked"))

	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Message != "internal server error" {
		t.Fatalf("internal detail surfaced: %q", payload.Error.Message)
	}
}

func TestWriteErrorSurfacesClientMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not deliverable"))

	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Message != "order is not deliverable" {
		t.Fatalf("unexpected message: %q", payload.Error.Message)
	}
}
