// Package export writes reservation lists as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"roombook/internal/model"
	"roombook/internal/page"
)

// ContentType is the MIME type of the produced workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxSheetName is the Excel limit on sheet names, in characters.
const maxSheetName = 31

// Writer builds an xlsx workbook sheet by sheet.
type Writer struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

// NewWriter creates an empty workbook.
func NewWriter() *Writer {
	return &Writer{file: excelize.NewFile()}
}

// AddSheet adds a new sheet with the given name and makes it current.
func (w *Writer) AddSheet(name string) error {
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}

	if w.currentSheet == "" {
		// The default sheet is renamed instead of left empty.
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

// WriteHeader writes bold column headers to the current sheet.
func (w *Writer) WriteHeader(columns []string) error {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := w.setRow(row); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}

	w.currentRow++
	return nil
}

// WriteRow writes a data row to the current sheet.
func (w *Writer) WriteRow(row []any) error {
	if err := w.setRow(row); err != nil {
		return err
	}
	w.currentRow++
	return nil
}

func (w *Writer) setRow(row []any) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	cell, err := excelize.CoordinatesToCellName(1, w.currentRow)
	if err != nil {
		return err
	}
	return w.file.SetSheetRow(w.currentSheet, cell, &row)
}

// Save writes the workbook to wr.
func (w *Writer) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

// Close releases resources.
func (w *Writer) Close() error {
	return w.file.Close()
}

var reservationColumns = []string{"예약 번호", "날짜", "스터디룸", "시간", "이용 시간(분)", "상태", "체크인 시각", "신청 일시"}

// StatusLabel returns the Korean label of a reservation status.
func StatusLabel(status string) string {
	switch status {
	case model.StatusReserved:
		return "예약됨"
	case model.StatusCheckedIn:
		return "체크인 완료"
	case model.StatusCancelled:
		return "취소됨"
	default:
		return status
	}
}

// MyReservations writes the caller's reservation list as a single sheet workbook.
func MyReservations(wr io.Writer, rows []page.ReservationView) error {
	w := NewWriter()
	defer w.Close()

	if err := w.AddSheet("내 예약"); err != nil {
		return err
	}
	if err := w.WriteHeader(reservationColumns); err != nil {
		return err
	}
	for _, r := range rows {
		checkin := ""
		if r.CheckinTime != nil {
			checkin = *r.CheckinTime
		}
		if err := w.WriteRow([]any{
			r.ID,
			r.Date,
			r.RoomName,
			r.TimeLabel,
			(r.EndSlot - r.StartSlot + 1) * 30,
			StatusLabel(r.Status),
			checkin,
			r.CreatedAt,
		}); err != nil {
			return fmt.Errorf("write reservation %d: %w", r.ID, err)
		}
	}
	return w.Save(wr)
}
