package bigquery

import (
	"context"
	"fmt"

	"google.golang.org/api/iterator"
)

// ListDocuments returns all cheque documents, newest first.
func (r *ChequeRepository) ListDocuments(ctx context.Context) ([]*ChequeDocumentRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			document_id,
			gcs_uri,
			upload_ts,
			processed_ts,
			processing_status,
			original_filename,
			file_mime_type
		FROM %s.%s
		ORDER BY upload_ts DESC
	`, r.dataset, documentsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListDocuments: reading query: %w", err)
	}

	var rows []*ChequeDocumentRow
	for {
		var row ChequeDocumentRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListDocuments: iterating rows: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}

// ListResults returns the most recent classified results, newest first.
// limit <= 0 means no limit.
func (r *ChequeRepository) ListResults(ctx context.Context, limit int) ([]*ChequeResultRow, error) {
	query := fmt.Sprintf(`
		SELECT
			document_id,
			processing_run_id,
			bank_name,
			cheque_date,
			payee,
			resolved_payee,
			payer,
			amount_numerical,
			cheque_number,
			key_identifier,
			currency_raw,
			currency,
			remarks,
			is_trailer_fee,
			is_management_fee,
			next_step,
			oracle_next_step,
			next_step_mismatch,
			filename,
			processed_ts
		FROM %s.%s
		ORDER BY processed_ts DESC
	`, r.dataset, resultsTable)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	it, err := r.client.Query(query).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListResults: reading query: %w", err)
	}

	var rows []*ChequeResultRow
	for {
		var row ChequeResultRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListResults: iterating rows: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}
