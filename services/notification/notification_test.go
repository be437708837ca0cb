package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/models"
)

type detailsStub struct {
	details *models.BookingDetails
	err     error
}

func (s *detailsStub) GetDetails(_ context.Context, _ int64) (*models.BookingDetails, error) {
	return s.details, s.err
}

type stringSettings map[string]string

func (s stringSettings) GetString(_ context.Context, key string, def string) string {
	if v, ok := s[key]; ok {
		return v
	}
	return def
}

type recordingMessenger struct {
	sends map[int64][]string
	fail  bool
}

func newRecordingMessenger() *recordingMessenger {
	return &recordingMessenger{sends: map[int64][]string{}}
}

func (m *recordingMessenger) Send(_ context.Context, externalID int64, text string) error {
	if m.fail {
		return errors.New("chat blocked")
	}
	m.sends[externalID] = append(m.sends[externalID], text)
	return nil
}

func sampleDetails() *models.BookingDetails {
	price := int64(50000)
	hold := time.Date(2026, 3, 10, 10, 10, 0, 0, time.UTC)
	master := int64(222)
	d := &models.BookingDetails{
		ClientName:       "Ann",
		ClientExternalID: 111,
		ClientLocale:     "uk-UA",
		MasterName:       "Olha",
		MasterExternalID: &master,
		ServiceNames:     "Haircut, Coloring",
	}
	d.ID = 5
	d.StartsAt = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	d.FinalPriceCents = &price
	d.CashHoldExpiresAt = &hold
	return d
}

func testSettings() stringSettings {
	return stringSettings{
		"default_language":  "en",
		"business_timezone": "UTC",
		"default_currency":  "UAH",
	}
}

func newDispatcher(repo DetailsRepo, messenger Messenger) *DefaultNotificationService {
	// No queue client: messages go straight through the Messenger.
	return NewDefaultNotificationService(repo, testSettings(), nil, messenger)
}

func TestNormalizeLang(t *testing.T) {
	assert.Equal(t, "uk", normalizeLang("uk-UA"))
	assert.Equal(t, "ru", normalizeLang("RU"))
	assert.Equal(t, "en", normalizeLang("en-GB"))
	assert.Equal(t, "en", normalizeLang("de"))
	assert.Equal(t, "en", normalizeLang(""))
}

func TestRenderLocalizedBody(t *testing.T) {
	d := sampleDetails()

	en := render(EventReserved, d, "en", "UTC", "UAH")
	assert.Contains(t, en, "Your appointment is on hold")
	assert.Contains(t, en, "🗓 10.03.2026 12:00")
	assert.Contains(t, en, "💇 Haircut, Coloring")
	assert.Contains(t, en, "👤 Olha")
	assert.Contains(t, en, "💰 500.00 UAH")
	assert.Contains(t, en, "Held until 10:10")

	uk := render(EventReserved, d, "uk-UA", "UTC", "UAH")
	assert.Contains(t, uk, "Ваш запис утримується")
	assert.Contains(t, uk, "Утримується до 10:10")

	ru := render(EventCancelled, d, "ru", "UTC", "UAH")
	assert.Contains(t, ru, "Запись отменена")
	assert.NotContains(t, ru, "Удерживается", "hold deadline only on the reserved event")
}

func TestRenderOmitsMissingParts(t *testing.T) {
	d := sampleDetails()
	d.FinalPriceCents = nil
	d.CashHoldExpiresAt = nil
	d.ServiceNames = ""

	text := render(EventConfirmed, d, "en", "UTC", "UAH")
	assert.NotContains(t, text, "💰")
	assert.NotContains(t, text, "💇")
	assert.Contains(t, text, "👤 Olha")
}

func TestRenderConvertsToBusinessTimezone(t *testing.T) {
	d := sampleDetails()
	text := render(EventConfirmed, d, "en", "Europe/Kyiv", "UAH")
	assert.Contains(t, text, "14:00", "12:00 UTC is 14:00 in Kyiv in March")
}

func TestRenderUnknownEventIsEmpty(t *testing.T) {
	assert.Empty(t, render(Event("bogus"), sampleDetails(), "en", "UTC", "UAH"))
}

func TestNotifyDeduplicatesRecipients(t *testing.T) {
	messenger := newRecordingMessenger()
	svc := newDispatcher(&detailsStub{details: sampleDetails()}, messenger)

	svc.Notify(context.Background(), EventConfirmed, 5, []int64{111, 222, 111, 0, 222})

	assert.Len(t, messenger.sends[111], 1)
	assert.Len(t, messenger.sends[222], 1)
	_, sentToZero := messenger.sends[0]
	assert.False(t, sentToZero)
}

func TestNotifyLocalizesPerRecipient(t *testing.T) {
	messenger := newRecordingMessenger()
	svc := newDispatcher(&detailsStub{details: sampleDetails()}, messenger)

	svc.Notify(context.Background(), EventConfirmed, 5, []int64{111, 222})

	require.Len(t, messenger.sends[111], 1)
	require.Len(t, messenger.sends[222], 1)
	assert.Contains(t, messenger.sends[111][0], "Ваш запис підтверджено", "client gets their own locale")
	assert.Contains(t, messenger.sends[222][0], "Your appointment is confirmed", "others get the salon default")
}

func TestNotifySwallowsSnapshotFailure(t *testing.T) {
	messenger := newRecordingMessenger()
	svc := newDispatcher(&detailsStub{err: errors.New("db down")}, messenger)

	svc.Notify(context.Background(), EventConfirmed, 5, []int64{111})
	assert.Empty(t, messenger.sends)
}

func TestSendReminderReportsDeliveryFailure(t *testing.T) {
	messenger := newRecordingMessenger()
	svc := newDispatcher(&detailsStub{details: sampleDetails()}, messenger)

	require.NoError(t, svc.SendReminder(context.Background(), 5))
	require.Len(t, messenger.sends[111], 1)
	assert.Contains(t, messenger.sends[111][0], "Нагадування")

	messenger.fail = true
	assert.Error(t, svc.SendReminder(context.Background(), 5))
}
