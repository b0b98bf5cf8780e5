package parsers

import (
	"io"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
	pkgerrors "github.com/flojun/oceanstar-admin-page-sub000/pkg/errors"
	"github.com/flojun/oceanstar-admin-page-sub000/pkg/logger"
)

// reservationColumns are the canonical column names of a reservation dump.
const (
	colReservationID = "reservation_id"
	colCustomerName  = "customer_name"
	colTourDate      = "tour_date"
	colReceiptDate   = "receipt_date"
	colOption        = "option"
	colPax           = "pax_count"
	colAdult         = "adult_count"
	colChild         = "child_count"
	colAmount        = "amount"
	colSource        = "source"
	colStatus        = "status"
	colContact       = "contact"
	colNote          = "note"
	colPickup        = "pickup"
)

// reservationAliases maps raw header names of the internal reservation
// dump to canonical column names.
var reservationAliases = map[string]string{
	"예약번호": colReservationID,
	"예약자":  colCustomerName,
	"예약자명": colCustomerName,
	"투어일":  colTourDate,
	"접수일":  colReceiptDate,
	"옵션":   colOption,
	"인원":   colPax,
	"성인":   colAdult,
	"아동":   colChild,
	"금액":   colAmount,
	"경로":   colSource,
	"상태":   colStatus,
	"연락처":  colContact,
	"메모":   colNote,
	"픽업":   colPickup,
	"id":   colReservationID,
	"name": colCustomerName,
}

// ReservationParser parses raw internal reservation dumps. The virtual
// merge into MergedReservation groups happens downstream in the grouper.
type ReservationParser struct {
	*BaseParser
}

// NewReservationParser creates a parser for reservation dumps.
func NewReservationParser(config *ParseConfig) *ReservationParser {
	return &ReservationParser{BaseParser: NewBaseParser(config)}
}

// ParseReservations parses a reservation dump file into raw records.
// Records missing a customer name, receipt date, or tour date are skipped
// and counted, keeping the virtual-merge invariant intact.
func (rp *ReservationParser) ParseReservations(path string) ([]models.ReservationRecord, *ParseStats, error) {
	file, reader, err := rp.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	required := []string{colCustomerName, colTourDate, colReceiptDate}
	positions, err := rp.ReadHeaders(reader, path, reservationAliases, required)
	if err != nil {
		return nil, nil, err
	}

	stats := &ParseStats{}
	var records []models.ReservationRecord
	line := 1

	for {
		record, err := rp.readRecord(reader)
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			stats.AddError(pkgerrors.ParseError(pkgerrors.CodeInvalidFormat, path, line, "", "", err))
			continue
		}

		rec, recErr := rp.recordFromFields(record, positions, path, line)
		if recErr != nil {
			stats.AddError(recErr)
			continue
		}

		if rec.Validate() != nil {
			stats.RecordsSkipped++
			continue
		}

		records = append(records, *rec)
		stats.RecordsParsed++
	}

	rp.logger.WithFields(logger.Fields{
		"file":    path,
		"parsed":  stats.RecordsParsed,
		"skipped": stats.RecordsSkipped,
		"failed":  stats.RecordsFailed,
	}).Info("parsed reservation dump")

	return records, stats, nil
}

func (rp *ReservationParser) recordFromFields(record []string, positions map[string]int, path string, line int) (*models.ReservationRecord, error) {
	rec := &models.ReservationRecord{
		ReservationID: fieldValue(record, positions, colReservationID),
		CustomerName:  fieldValue(record, positions, colCustomerName),
		Option:        fieldValue(record, positions, colOption),
		Source:        fieldValue(record, positions, colSource),
		Status:        fieldValue(record, positions, colStatus),
		Contact:       fieldValue(record, positions, colContact),
		Note:          fieldValue(record, positions, colNote),
		Pickup:        fieldValue(record, positions, colPickup),
	}

	tourRaw := fieldValue(record, positions, colTourDate)
	tourDate, err := models.ParseDateWithFormats(tourRaw)
	if err != nil {
		return nil, pkgerrors.ParseError(pkgerrors.CodeInvalidData, path, line, colTourDate, tourRaw, err)
	}
	rec.TourDate = tourDate

	receiptRaw := fieldValue(record, positions, colReceiptDate)
	receiptDate, err := models.ParseDateWithFormats(receiptRaw)
	if err != nil {
		return nil, pkgerrors.ParseError(pkgerrors.CodeInvalidData, path, line, colReceiptDate, receiptRaw, err)
	}
	rec.ReceiptDate = receiptDate

	if raw := fieldValue(record, positions, colAmount); raw != "" {
		amount, err := models.ParseDecimalFromString(raw)
		if err != nil {
			return nil, pkgerrors.ParseError(pkgerrors.CodeInvalidData, path, line, colAmount, raw, err)
		}
		rec.Amount = amount
	}

	rec.PaxCount = parseCount(fieldValue(record, positions, colPax))
	rec.AdultCount = parseCount(fieldValue(record, positions, colAdult))
	rec.ChildCount = parseCount(fieldValue(record, positions, colChild))

	if rec.PaxCount == 0 {
		rec.PaxCount = rec.AdultCount + rec.ChildCount
	}

	return rec, nil
}
