package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/handyhub/quotehub/internal/db/models"
	"github.com/handyhub/quotehub/internal/events"
	"github.com/handyhub/quotehub/internal/types"
)

type QuotationServiceTestSuite struct {
	ServiceTestSuite
}

func TestQuotationService(t *testing.T) {
	suite.Run(t, new(QuotationServiceTestSuite))
}

func (s *QuotationServiceTestSuite) TestSubmit() {
	jobID := s.newID()
	quote := s.submitQuote(jobID, s.newID(), 150)

	s.NotEmpty(quote.ID)
	s.Equal(models.QuoteStatusPending, quote.Status)
	s.Equal(150.0, quote.Price)

	submitted := s.publisher.ofSignal(events.SignalQuoteSubmitted)
	s.Require().Len(submitted, 1)
	payload := submitted[0].Payload.(*events.QuoteSubmittedPayload)
	s.Equal(quote.ID, payload.QuoteID)
	s.Equal(jobID, payload.JobID)
}

func (s *QuotationServiceTestSuite) TestSubmitValidation() {
	_, err := s.quotations.Submit(s.ctx, &SubmitParams{Price: 100}, s.newID(), "p@example.com")
	s.Equal(types.KindBadRequest, types.KindOf(err))

	_, err = s.quotations.Submit(s.ctx, &SubmitParams{JobID: s.newID(), Price: -5}, s.newID(), "p@example.com")
	s.Equal(types.KindBadRequest, types.KindOf(err))
}

func (s *QuotationServiceTestSuite) TestSubmitTwiceConflicts() {
	jobID, providerID := s.newID(), s.newID()
	s.submitQuote(jobID, providerID, 150)

	_, err := s.quotations.Submit(s.ctx, &SubmitParams{JobID: jobID, Price: 120}, providerID, "p@example.com")
	s.Equal(types.KindConflict, types.KindOf(err))
}

func (s *QuotationServiceTestSuite) TestSubmitAgainAfterCancel() {
	jobID, providerID := s.newID(), s.newID()
	quote := s.submitQuote(jobID, providerID, 150)

	_, err := s.quotations.Cancel(s.ctx, quote.ID, providerID)
	s.Require().NoError(err)

	again, err := s.quotations.Submit(s.ctx, &SubmitParams{JobID: jobID, Price: 120}, providerID, "p@example.com")
	s.NoError(err)
	s.Equal(models.QuoteStatusPending, again.Status)
}

func (s *QuotationServiceTestSuite) TestSubmitAgainstInvitation() {
	jobID, providerID := s.newID(), s.newID()
	invitation := s.invite(jobID, providerID)
	s.publisher.reset()

	quote, err := s.quotations.Submit(s.ctx, &SubmitParams{
		JobID:    jobID,
		InviteID: &invitation.ID,
		Price:    180,
	}, providerID, providerID+"@example.com")
	s.Require().NoError(err)

	// Customer comes from the invitation snapshot, and the response time is
	// a positive whole number of hours.
	s.Equal("customer-1", quote.CustomerID)
	s.GreaterOrEqual(quote.ResponseTimeHours, 1)

	responded, err := s.inviteRepo.GetByID(s.ctx, invitation.ID)
	s.Require().NoError(err)
	s.Equal(models.InviteStatusResponded, responded.Status)
	s.Require().NotNil(responded.QuoteID)
	s.Equal(quote.ID, *responded.QuoteID)

	responses := s.publisher.ofSignal(events.SignalInvitationResponse)
	s.Require().Len(responses, 1)
	response := responses[0].Payload.(*events.InvitationResponsePayload)
	s.Equal(events.InvitationResponseAccepted, response.Response)
	s.Equal(quote.ID, response.QuoteID)

	metrics, err := s.metrics.GetByProvider(s.ctx, providerID)
	s.Require().NoError(err)
	s.Equal(1, metrics.TotalInvites)
	s.Equal(1, metrics.TotalResponses)
}

func (s *QuotationServiceTestSuite) TestSubmitAgainstForeignInvitation() {
	jobID := s.newID()
	invitation := s.invite(jobID, s.newID())

	_, err := s.quotations.Submit(s.ctx, &SubmitParams{
		JobID:    jobID,
		InviteID: &invitation.ID,
		Price:    100,
	}, s.newID(), "other@example.com")
	s.Equal(types.KindForbidden, types.KindOf(err))
}

func (s *QuotationServiceTestSuite) TestSubmitAgainstWrongJob() {
	providerID := s.newID()
	invitation := s.invite(s.newID(), providerID)

	_, err := s.quotations.Submit(s.ctx, &SubmitParams{
		JobID:    s.newID(),
		InviteID: &invitation.ID,
		Price:    100,
	}, providerID, "p@example.com")
	s.Equal(types.KindBadRequest, types.KindOf(err))
}

func (s *QuotationServiceTestSuite) TestSubmitAgainstExpiredInvitation() {
	jobID, providerID := s.newID(), s.newID()
	invitation := s.invite(jobID, providerID)

	// Backdate the window.
	err := s.db.Model(&models.Invitation{}).
		Where("id = ?", invitation.ID).
		Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error
	s.Require().NoError(err)

	_, err = s.quotations.Submit(s.ctx, &SubmitParams{
		JobID:    jobID,
		InviteID: &invitation.ID,
		Price:    100,
	}, providerID, "p@example.com")
	s.Equal(types.KindBadRequest, types.KindOf(err))

	expired, err := s.inviteRepo.GetByID(s.ctx, invitation.ID)
	s.Require().NoError(err)
	s.Equal(models.InviteStatusExpired, expired.Status)
}

func (s *QuotationServiceTestSuite) TestAcceptRejectsSiblings() {
	jobID := s.newID()
	providerA, providerB := s.newID(), s.newID()
	cheap := s.submitQuote(jobID, providerA, 150)
	pricey := s.submitQuote(jobID, providerB, 200)
	s.publisher.reset()

	accepted, err := s.quotations.Accept(s.ctx, cheap.ID, "customer-1", "see you monday")
	s.Require().NoError(err)
	s.Equal(models.QuoteStatusAccepted, accepted.Status)

	sibling, err := s.quotations.GetByID(s.ctx, pricey.ID)
	s.Require().NoError(err)
	s.Equal(models.QuoteStatusRejected, sibling.Status)

	acceptedSignals := s.publisher.ofSignal(events.SignalQuoteAccepted)
	s.Require().Len(acceptedSignals, 1)
	payload := acceptedSignals[0].Payload.(*events.QuoteAcceptedPayload)
	s.Equal(cheap.ID, payload.QuoteID)
	s.Equal(150.0, payload.Price)

	// Only the accepted provider's metrics move.
	winner, err := s.metrics.GetByProvider(s.ctx, providerA)
	s.Require().NoError(err)
	s.Equal(1, winner.AcceptedQuotes)

	loser, err := s.metrics.GetByProvider(s.ctx, providerB)
	s.Require().NoError(err)
	s.Equal(0, loser.RejectedQuotes)
}

func (s *QuotationServiceTestSuite) TestAcceptTwice() {
	jobID := s.newID()
	first := s.submitQuote(jobID, s.newID(), 150)
	second := s.submitQuote(jobID, s.newID(), 200)

	_, err := s.quotations.Accept(s.ctx, first.ID, "customer-1", "")
	s.Require().NoError(err)

	_, err = s.quotations.Accept(s.ctx, second.ID, "customer-1", "")
	s.Equal(types.KindInvalidState, types.KindOf(err))

	_, err = s.quotations.Accept(s.ctx, first.ID, "customer-1", "")
	s.Equal(types.KindInvalidState, types.KindOf(err))
}

func (s *QuotationServiceTestSuite) TestAcceptExpiredValidity() {
	quote := s.submitQuote(s.newID(), s.newID(), 150)

	err := s.db.Model(&models.Quotation{}).
		Where("id = ?", quote.ID).
		Update("valid_until", time.Now().UTC().Add(-time.Hour)).Error
	s.Require().NoError(err)

	_, err = s.quotations.Accept(s.ctx, quote.ID, "customer-1", "")
	s.Equal(types.KindBadRequest, types.KindOf(err))
}

func (s *QuotationServiceTestSuite) TestAcceptNotFound() {
	_, err := s.quotations.Accept(s.ctx, s.newID(), "customer-1", "")
	s.Equal(types.KindNotFound, types.KindOf(err))
}

func (s *QuotationServiceTestSuite) TestReject() {
	providerID := s.newID()
	quote := s.submitQuote(s.newID(), providerID, 150)
	s.publisher.reset()

	rejected, err := s.quotations.Reject(s.ctx, quote.ID, "customer-1", "too expensive")
	s.Require().NoError(err)
	s.Equal(models.QuoteStatusRejected, rejected.Status)
	s.Equal("too expensive", rejected.CustomerNotes)

	s.Len(s.publisher.ofSignal(events.SignalQuoteRejected), 1)

	metrics, err := s.metrics.GetByProvider(s.ctx, providerID)
	s.Require().NoError(err)
	s.Equal(1, metrics.RejectedQuotes)

	// Rejection is terminal.
	_, err = s.quotations.Accept(s.ctx, quote.ID, "customer-1", "")
	s.Equal(types.KindInvalidState, types.KindOf(err))
}

func (s *QuotationServiceTestSuite) TestCancelOwnership() {
	providerID := s.newID()
	quote := s.submitQuote(s.newID(), providerID, 150)

	_, err := s.quotations.Cancel(s.ctx, quote.ID, s.newID())
	s.Equal(types.KindForbidden, types.KindOf(err))

	cancelled, err := s.quotations.Cancel(s.ctx, quote.ID, providerID)
	s.NoError(err)
	s.Equal(models.QuoteStatusCancelled, cancelled.Status)
	s.Len(s.publisher.ofSignal(events.SignalQuoteCancelled), 1)
}

func (s *QuotationServiceTestSuite) TestUpdatePendingOnly() {
	providerID := s.newID()
	quote := s.submitQuote(s.newID(), providerID, 150)

	updated, err := s.quotations.Update(s.ctx, quote.ID, providerID, &SubmitParams{
		Price:         135,
		EstimatedTime: "3 days",
		Message:       "revised offer",
	})
	s.Require().NoError(err)
	s.Equal(135.0, updated.Price)
	s.Equal("3 days", updated.EstimatedTime)

	_, err = s.quotations.Accept(s.ctx, quote.ID, "customer-1", "")
	s.Require().NoError(err)

	_, err = s.quotations.Update(s.ctx, quote.ID, providerID, &SubmitParams{Price: 100})
	s.Equal(types.KindInvalidState, types.KindOf(err))
}

func (s *QuotationServiceTestSuite) TestRemove() {
	providerID := s.newID()
	quote := s.submitQuote(s.newID(), providerID, 150)

	s.Equal(types.KindForbidden, types.KindOf(s.quotations.Remove(s.ctx, quote.ID, s.newID())))

	s.NoError(s.quotations.Remove(s.ctx, quote.ID, providerID))
	_, err := s.quotations.GetByID(s.ctx, quote.ID)
	s.Equal(types.KindNotFound, types.KindOf(err))
}

func (s *QuotationServiceTestSuite) TestRemoveAcceptedForbidden() {
	providerID := s.newID()
	quote := s.submitQuote(s.newID(), providerID, 150)

	_, err := s.quotations.Accept(s.ctx, quote.ID, "customer-1", "")
	s.Require().NoError(err)

	s.Equal(types.KindForbidden, types.KindOf(s.quotations.Remove(s.ctx, quote.ID, providerID)))
}

func (s *QuotationServiceTestSuite) TestFindByJobSummary() {
	jobID := s.newID()
	s.submitQuote(jobID, s.newID(), 100)
	s.submitQuote(jobID, s.newID(), 200)
	s.submitQuote(jobID, s.newID(), 300)

	view, err := s.quotations.FindByJob(s.ctx, jobID)
	s.Require().NoError(err)

	s.Equal(jobID, view.JobID)
	s.Equal(3, view.Summary.Total)
	s.Equal(3, view.Summary.Pending)
	s.Equal(0, view.Summary.Accepted)
	s.InDelta(200, view.Summary.AveragePrice, 0.001)
	s.Equal(100.0, view.Summary.MinPrice)
	s.Equal(300.0, view.Summary.MaxPrice)

	// Ascending price while everything is pending.
	s.Equal(100.0, view.Quotations[0].Price)
	s.Equal(300.0, view.Quotations[2].Price)
}

func (s *QuotationServiceTestSuite) TestFindByJobEmpty() {
	view, err := s.quotations.FindByJob(s.ctx, s.newID())
	s.Require().NoError(err)
	s.Equal(0, view.Summary.Total)
	s.Equal(0.0, view.Summary.AveragePrice)
}

func (s *QuotationServiceTestSuite) TestExpireSweep() {
	quote := s.submitQuote(s.newID(), s.newID(), 150)

	err := s.db.Model(&models.Quotation{}).
		Where("id = ?", quote.ID).
		Update("valid_until", time.Now().UTC().Add(-time.Hour)).Error
	s.Require().NoError(err)

	count, err := s.quotations.ExpireSweep(s.ctx, time.Now().UTC())
	s.NoError(err)
	s.EqualValues(1, count)

	expired, err := s.quotations.GetByID(s.ctx, quote.ID)
	s.Require().NoError(err)
	s.Equal(models.QuoteStatusExpired, expired.Status)
}

func (s *QuotationServiceTestSuite) TestCancelAllForJob() {
	jobID := s.newID()
	s.submitQuote(jobID, s.newID(), 100)
	s.submitQuote(jobID, s.newID(), 200)
	s.publisher.reset()

	count, err := s.quotations.CancelAllForJob(s.ctx, jobID)
	s.Require().NoError(err)
	s.Equal(2, count)

	// One cancellation signal per affected provider.
	s.Len(s.publisher.ofSignal(events.SignalQuoteCancelled), 2)

	view, err := s.quotations.FindByJob(s.ctx, jobID)
	s.Require().NoError(err)
	s.Equal(0, view.Summary.Total)
}
