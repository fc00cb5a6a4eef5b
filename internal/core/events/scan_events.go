package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeScanQueued    = "scan.queued"
	EventTypeScanCompleted = "scan.completed"
	EventTypeScanFailed    = "scan.failed"
)

type ScanQueuedEvent struct {
	BaseEvent
	ReceiptID string `json:"receipt_id"`
	UserID    string `json:"user_id"`
	ImagePath string `json:"image_path"`
}

func NewScanQueuedEvent(receiptID, userID, imagePath string) *ScanQueuedEvent {
	return &ScanQueuedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeScanQueued,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"receipt_id": receiptID,
				"user_id":    userID,
				"image_path": imagePath,
			},
		},
		ReceiptID: receiptID,
		UserID:    userID,
		ImagePath: imagePath,
	}
}

type ScanCompletedEvent struct {
	BaseEvent
	ReceiptID      string `json:"receipt_id"`
	AmountTTCCents *int64 `json:"amount_ttc_cents,omitempty"`
	AmountTVACents *int64 `json:"amount_tva_cents,omitempty"`
}

func NewScanCompletedEvent(receiptID string, amountTTCCents, amountTVACents *int64) *ScanCompletedEvent {
	return &ScanCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeScanCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"receipt_id":       receiptID,
				"amount_ttc_cents": amountTTCCents,
				"amount_tva_cents": amountTVACents,
			},
		},
		ReceiptID:      receiptID,
		AmountTTCCents: amountTTCCents,
		AmountTVACents: amountTVACents,
	}
}

type ScanFailedEvent struct {
	BaseEvent
	ReceiptID string `json:"receipt_id"`
	Reason    string `json:"reason"`
}

func NewScanFailedEvent(receiptID, reason string) *ScanFailedEvent {
	return &ScanFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeScanFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"receipt_id": receiptID,
				"reason":     reason,
			},
		},
		ReceiptID: receiptID,
		Reason:    reason,
	}
}
