package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"expense-bot/internal/dto"
	"expense-bot/internal/models"
	"expense-bot/pkg/ai"
	"expense-bot/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultImageMimeType = "image/jpeg"

// Outcome is the acknowledgment body returned to the Graph API.
type Outcome string

const (
	OutcomeReceived        Outcome = "EVENT_RECEIVED"
	OutcomeDocumentSkipped Outcome = "PDF Skipped"
)

type UserFinder interface {
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
}

type TransactionCreator interface {
	Create(ctx context.Context, tx *models.Transaction) error
}

// Messenger is the subset of the WhatsApp Cloud API the webhook needs.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	MediaURL(ctx context.Context, mediaID string) (string, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

type WebhookService struct {
	users          UserFinder
	transactions   TransactionCreator
	messenger      Messenger
	store          storage.ObjectStore
	extractor      ai.ImageExtractor
	currencySymbol string
	logger         *zap.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

func NewWebhookService(
	users UserFinder,
	transactions TransactionCreator,
	messenger Messenger,
	store storage.ObjectStore,
	extractor ai.ImageExtractor,
	currencySymbol string,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		users:          users,
		transactions:   transactions,
		messenger:      messenger,
		store:          store,
		extractor:      extractor,
		currencySymbol: currencySymbol,
		logger:         logger,
		now:            time.Now,
		newID:          uuid.New,
	}
}

// HandleMessage runs the whole flow for one inbound message. User-facing
// failures are answered over WhatsApp and do not produce an error; a returned
// error means the event itself could not be handled.
func (s *WebhookService) HandleMessage(ctx context.Context, msg dto.Message) (Outcome, error) {
	logger := s.logger.With(zap.String("from", msg.From), zap.String("type", string(msg.Type)))

	user, err := s.users.FindByPhone(ctx, msg.From)
	if err != nil {
		// Unknown senders get no reply so two bots cannot loop on each other.
		logger.Info("User lookup failed, ignoring message", zap.Error(err))
		return OutcomeReceived, nil
	}
	logger = logger.With(zap.Stringer("user_id", user.ID), zap.Stringer("tenant_id", user.TenantID))
	name := user.DisplayName()

	if !user.Entitled() {
		logger.Info("Account inactive", zap.String("status", string(user.Tenant.SubscriptionStatus)))
		s.reply(ctx, msg.From, replyInactive(name))
		return OutcomeReceived, nil
	}

	switch msg.Type {
	case dto.MessageTypeText:
		s.reply(ctx, msg.From, replyGreeting(name))
	case dto.MessageTypeDocument:
		s.reply(ctx, msg.From, replyImagesOnly)
		return OutcomeDocumentSkipped, nil
	case dto.MessageTypeImage:
		if msg.Image == nil || msg.Image.ID == "" {
			return "", ErrMissingMedia
		}
		s.reply(ctx, msg.From, replyProcessing)

		rec, err := s.processImage(ctx, logger, user, *msg.Image)
		if err != nil {
			logger.Error("Receipt processing failed", zap.Error(err))
			s.reply(ctx, msg.From, replyProcessingFail)
			return OutcomeReceived, nil
		}
		s.reply(ctx, msg.From, replySaved(rec.MerchantName, rec.TotalAmount, s.currencySymbol))
	default:
		logger.Debug("Unsupported message type ignored")
	}

	return OutcomeReceived, nil
}

// processImage runs resolve, download, store, extract and persist. The record
// insert is best effort: its failure is logged and the extraction is still returned.
func (s *WebhookService) processImage(ctx context.Context, logger *zap.Logger, user *models.User, media dto.Media) (*models.ExtractedRecord, error) {
	mimeType := media.MimeType
	if mimeType == "" {
		mimeType = defaultImageMimeType
	}

	mediaURL, err := s.messenger.MediaURL(ctx, media.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMediaResolution, err)
	}

	image, err := s.messenger.Download(ctx, mediaURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	logger.Info("Media downloaded", zap.String("media_id", media.ID), zap.Int("bytes", len(image)))

	key := fmt.Sprintf("%s/%d.jpg", user.TenantID, s.now().UnixMilli())
	if err := s.store.Put(ctx, key, bytes.NewReader(image), int64(len(image)), mimeType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	imageURL := s.store.PublicURL(key)

	text, err := s.extractor.ExtractFromImage(ctx, extractionPrompt, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	rec := ParseExtraction(text)
	if rec.Unreadable() {
		logger.Warn("Model output is not valid JSON", zap.String("raw", text))
	} else {
		logger.Debug("Extraction parsed",
			zap.String("doc_type", rec.DocType),
			zap.Int("extra_fields", len(rec.Extra())),
		)
	}

	tx := &models.Transaction{
		ID:        s.newID(),
		TenantID:  user.TenantID,
		UserID:    user.ID,
		Amount:    rec.TotalAmount,
		Merchant:  rec.MerchantName,
		Status:    models.TransactionStatusPending,
		ImageURL:  imageURL,
		Metadata:  rec,
		CreatedAt: s.now(),
	}
	if tx.Merchant == "" {
		tx.Merchant = unknownMerchant
	}
	if rec.Category != "" {
		category := rec.Category
		tx.Category = &category
	}

	if err := s.transactions.Create(ctx, tx); err != nil {
		logger.Error("Failed to save transaction", zap.Error(err), zap.String("image_url", imageURL))
	} else {
		logger.Info("Transaction saved",
			zap.Stringer("transaction_id", tx.ID),
			zap.String("merchant", tx.Merchant),
			zap.Float64("amount", tx.Amount),
		)
	}

	return rec, nil
}

// reply sends a WhatsApp text. Send failures are only logged.
func (s *WebhookService) reply(ctx context.Context, to, body string) {
	if err := s.messenger.SendText(ctx, to, body); err != nil {
		s.logger.Error("Failed to send WhatsApp reply", zap.String("to", to), zap.Error(err))
	}
}
