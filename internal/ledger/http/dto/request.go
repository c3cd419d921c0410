// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	customValidation "github.com/medledger/tokenledger/internal/validation"
)

// StoreTokenRequest contains the parameters for recording a consultation token.
type StoreTokenRequest struct {
	PDFHash     string `json:"pdf_hash"`     // SHA-256 of the token document, hex encoded
	DoctorHash  string `json:"doctor_hash"`  // SHA-256 of the issuing doctor identity
	PatientHash string `json:"patient_hash"` // SHA-256 of the patient identity
	TokenNumber uint64 `json:"token_number"`
	Metadata    string `json:"metadata"`
}

// Validate checks the fingerprints and the metadata bound. maxMetadataBytes <= 0 skips the bound.
func (r *StoreTokenRequest) Validate(maxMetadataBytes int) error {
	metadataRules := []validation.Rule{customValidation.ValidUTF8}
	if maxMetadataBytes > 0 {
		metadataRules = append(metadataRules, customValidation.MaxBytes(maxMetadataBytes))
	}

	return validation.ValidateStruct(r,
		validation.Field(&r.PDFHash, validation.Required, customValidation.Fingerprint),
		validation.Field(&r.DoctorHash, validation.Required, customValidation.Fingerprint),
		validation.Field(&r.PatientHash, validation.Required, customValidation.Fingerprint),
		validation.Field(&r.Metadata, metadataRules...),
	)
}

// ToInput converts the request into the registry input. Call Validate first.
func (r *StoreTokenRequest) ToInput() (ledgerDomain.StoreTokenInput, error) {
	pdfHash, err := ledgerDomain.ParseFingerprint(r.PDFHash)
	if err != nil {
		return ledgerDomain.StoreTokenInput{}, err
	}
	doctorHash, err := ledgerDomain.ParseFingerprint(r.DoctorHash)
	if err != nil {
		return ledgerDomain.StoreTokenInput{}, err
	}
	patientHash, err := ledgerDomain.ParseFingerprint(r.PatientHash)
	if err != nil {
		return ledgerDomain.StoreTokenInput{}, err
	}

	return ledgerDomain.StoreTokenInput{
		PDFHash:     pdfHash,
		DoctorHash:  doctorHash,
		PatientHash: patientHash,
		TokenNumber: r.TokenNumber,
		Metadata:    r.Metadata,
	}, nil
}

// TransferOwnershipRequest contains the new owner identity. The caller identity comes from
// the X-Caller-Identity header.
type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner"`
}

// Validate bounds the identity length and rejects surrounding whitespace. Empty identities
// are rejected by the ownership gate after the caller check.
func (r *TransferOwnershipRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.NewOwner, validation.Length(0, 255), customValidation.NoWhitespace),
	)
}
