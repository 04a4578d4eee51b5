// Package acl translates between external service DTOs and domain types.
//
// Two adapters live here:
//
//   - [HostClient] reads journals, articles, accounts and organization
//     identifiers from the host submission platform's REST API.
//   - [QuotationClient] posts rendered request bodies to a journal's
//     third-party quotation API.
//
// External DTOs are unexported and never leave this package. Host platform
// failures are mapped to domain errors by [MapHTTPError]:
//   - 404 → [domain.ErrNotFound]
//   - 409 → [domain.ErrConflict]
//   - 401, 403 → [domain.ErrForbidden]
//   - 429, 5xx, network → [domain.ErrUnavailable]
//   - any other 4xx → [domain.ErrValidation], naming the first form field
//     error when the body has one
//
// The quotation API is judged by its caller, so [QuotationClient] reports
// ports.ErrQuoteTimeout and ports.ErrQuoteMalformed instead, and any other
// failure as an error whose text is shown to editors.
package acl
