package repos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	quotehubdb "github.com/handyhub/quotehub/internal/db"
	"github.com/handyhub/quotehub/internal/db/models"
)

type QuotationRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestQuotationRepository(t *testing.T) {
	suite.Run(t, new(QuotationRepositoryTestSuite))
}

func (s *QuotationRepositoryTestSuite) TestCreate() {
	quote := s.createTestQuote(s.newID(), s.newID())
	s.NotEmpty(quote.ID)
	s.Equal(models.QuoteStatusPending, quote.Status)
}

func (s *QuotationRepositoryTestSuite) TestCreateDuplicateActive() {
	jobID, providerID := s.newID(), s.newID()
	s.createTestQuote(jobID, providerID)

	dup := &models.Quotation{JobID: jobID, ProviderID: providerID, Price: 99}
	err := s.quoteRepo.Create(s.ctx, dup)
	s.Error(err)
	s.True(quotehubdb.IsDuplicateKeyError(err))
}

func (s *QuotationRepositoryTestSuite) TestCreateAfterTerminal() {
	jobID, providerID := s.newID(), s.newID()
	quote := s.createTestQuote(jobID, providerID)

	// A cancelled quote no longer counts as active, so resubmission works.
	_, err := s.quoteRepo.Cancel(s.ctx, quote.ID, time.Now().UTC())
	s.Require().NoError(err)

	again := &models.Quotation{JobID: jobID, ProviderID: providerID, Price: 120}
	s.NoError(s.quoteRepo.Create(s.ctx, again))
}

func (s *QuotationRepositoryTestSuite) TestGetByID() {
	original := s.createTestQuote(s.newID(), s.newID())

	found, err := s.quoteRepo.GetByID(s.ctx, original.ID)
	s.NoError(err)
	s.Equal(original.ID, found.ID)
	s.Equal(original.Price, found.Price)

	_, err = s.quoteRepo.GetByID(s.ctx, s.newID())
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *QuotationRepositoryTestSuite) TestGetActiveForJobProvider() {
	jobID, providerID := s.newID(), s.newID()
	quote := s.createTestQuote(jobID, providerID)

	active, err := s.quoteRepo.GetActiveForJobProvider(s.ctx, jobID, providerID)
	s.NoError(err)
	s.Equal(quote.ID, active.ID)

	_, err = s.quoteRepo.Reject(s.ctx, quote.ID, "", time.Now().UTC())
	s.Require().NoError(err)

	_, err = s.quoteRepo.GetActiveForJobProvider(s.ctx, jobID, providerID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *QuotationRepositoryTestSuite) TestAcceptRejectsSiblings() {
	jobID := s.newID()
	winner := s.createTestQuote(jobID, s.newID())
	loserA := s.createTestQuote(jobID, s.newID())
	loserB := s.createTestQuote(jobID, s.newID())

	now := time.Now().UTC()
	accepted, err := s.quoteRepo.Accept(s.ctx, winner.ID, jobID, "see you monday", now)
	s.Require().NoError(err)
	s.Equal(models.QuoteStatusAccepted, accepted.Status)
	s.NotNil(accepted.AcceptedAt)
	s.Equal("see you monday", accepted.CustomerNotes)

	for _, loserID := range []string{loserA.ID, loserB.ID} {
		loser, err := s.quoteRepo.GetByID(s.ctx, loserID)
		s.Require().NoError(err)
		s.Equal(models.QuoteStatusRejected, loser.Status)
		s.NotNil(loser.RejectedAt)
	}

	count, err := s.quoteRepo.CountAcceptedForJob(s.ctx, jobID)
	s.NoError(err)
	s.EqualValues(1, count)
}

func (s *QuotationRepositoryTestSuite) TestAcceptTwice() {
	jobID := s.newID()
	first := s.createTestQuote(jobID, s.newID())
	second := s.createTestQuote(jobID, s.newID())

	now := time.Now().UTC()
	_, err := s.quoteRepo.Accept(s.ctx, first.ID, jobID, "", now)
	s.Require().NoError(err)

	// The second accept targets a quote the first accept already rejected.
	_, err = s.quoteRepo.Accept(s.ctx, second.ID, jobID, "", now)
	s.ErrorIs(err, ErrStatusChanged)

	count, err := s.quoteRepo.CountAcceptedForJob(s.ctx, jobID)
	s.NoError(err)
	s.EqualValues(1, count)
}

func (s *QuotationRepositoryTestSuite) TestTransitionFromTerminal() {
	quote := s.createTestQuote(s.newID(), s.newID())
	now := time.Now().UTC()

	_, err := s.quoteRepo.Cancel(s.ctx, quote.ID, now)
	s.Require().NoError(err)

	_, err = s.quoteRepo.Reject(s.ctx, quote.ID, "", now)
	s.ErrorIs(err, ErrStatusChanged)
	_, err = s.quoteRepo.Cancel(s.ctx, quote.ID, now)
	s.ErrorIs(err, ErrStatusChanged)
	_, err = s.quoteRepo.Accept(s.ctx, quote.ID, quote.JobID, "", now)
	s.ErrorIs(err, ErrStatusChanged)
}

func (s *QuotationRepositoryTestSuite) TestListByJobOrdering() {
	jobID := s.newID()
	cheap := s.createTestQuote(jobID, s.newID())
	mid := s.createTestQuote(jobID, s.newID())
	pricey := s.createTestQuote(jobID, s.newID())

	_, err := s.quoteRepo.UpdatePending(s.ctx, cheap.ID, map[string]interface{}{"price": 50.0})
	s.Require().NoError(err)
	_, err = s.quoteRepo.UpdatePending(s.ctx, mid.ID, map[string]interface{}{"price": 100.0})
	s.Require().NoError(err)
	_, err = s.quoteRepo.UpdatePending(s.ctx, pricey.ID, map[string]interface{}{"price": 300.0})
	s.Require().NoError(err)

	// Accept the priciest quote: it must sort first regardless of price,
	// and accepting rejects the others so ListByJob drops them.
	now := time.Now().UTC()
	other := s.createTestQuote(jobID, s.newID())
	_, err = s.quoteRepo.UpdatePending(s.ctx, other.ID, map[string]interface{}{"price": 75.0})
	s.Require().NoError(err)

	quotes, err := s.quoteRepo.ListByJob(s.ctx, jobID)
	s.Require().NoError(err)
	s.Require().Len(quotes, 4)
	s.Equal([]float64{50, 75, 100, 300}, []float64{
		quotes[0].Price, quotes[1].Price, quotes[2].Price, quotes[3].Price,
	})

	_, err = s.quoteRepo.Accept(s.ctx, pricey.ID, jobID, "", now)
	s.Require().NoError(err)

	quotes, err = s.quoteRepo.ListByJob(s.ctx, jobID)
	s.Require().NoError(err)
	s.Require().Len(quotes, 1)
	s.Equal(pricey.ID, quotes[0].ID)
	s.Equal(models.QuoteStatusAccepted, quotes[0].Status)
}

func (s *QuotationRepositoryTestSuite) TestListByProvider() {
	providerID := s.newID()
	first := s.createTestQuote(s.newID(), providerID)
	second := s.createTestQuote(s.newID(), providerID)
	s.createTestQuote(s.newID(), s.newID())

	quotes, err := s.quoteRepo.ListByProvider(s.ctx, providerID, nil)
	s.NoError(err)
	s.Len(quotes, 2)

	_, err = s.quoteRepo.Cancel(s.ctx, first.ID, time.Now().UTC())
	s.Require().NoError(err)

	pending := models.QuoteStatusPending
	quotes, err = s.quoteRepo.ListByProvider(s.ctx, providerID, &pending)
	s.NoError(err)
	s.Require().Len(quotes, 1)
	s.Equal(second.ID, quotes[0].ID)
}

func (s *QuotationRepositoryTestSuite) TestDelete() {
	quote := s.createTestQuote(s.newID(), s.newID())

	s.NoError(s.quoteRepo.Delete(s.ctx, quote.ID))
	s.ErrorIs(s.quoteRepo.Delete(s.ctx, quote.ID), gorm.ErrRecordNotFound)
}

func (s *QuotationRepositoryTestSuite) TestExpireSweep() {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	stale := s.createTestQuote(s.newID(), s.newID())
	_, err := s.quoteRepo.UpdatePending(s.ctx, stale.ID, map[string]interface{}{"valid_until": past})
	s.Require().NoError(err)

	fresh := s.createTestQuote(s.newID(), s.newID())
	_, err = s.quoteRepo.UpdatePending(s.ctx, fresh.ID, map[string]interface{}{"valid_until": future})
	s.Require().NoError(err)

	open := s.createTestQuote(s.newID(), s.newID())

	count, err := s.quoteRepo.ExpireSweep(s.ctx, now)
	s.NoError(err)
	s.EqualValues(1, count)

	expired, err := s.quoteRepo.GetByID(s.ctx, stale.ID)
	s.Require().NoError(err)
	s.Equal(models.QuoteStatusExpired, expired.Status)

	for _, id := range []string{fresh.ID, open.ID} {
		quote, err := s.quoteRepo.GetByID(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(models.QuoteStatusPending, quote.Status)
	}

	// Sweeping again finds nothing new.
	count, err = s.quoteRepo.ExpireSweep(s.ctx, now)
	s.NoError(err)
	s.EqualValues(0, count)
}

func (s *QuotationRepositoryTestSuite) TestCancelAllForJob() {
	jobID := s.newID()
	s.createTestQuote(jobID, s.newID())
	s.createTestQuote(jobID, s.newID())
	accepted := s.createTestQuote(jobID, s.newID())

	now := time.Now().UTC()
	_, err := s.quoteRepo.Accept(s.ctx, accepted.ID, jobID, "", now)
	s.Require().NoError(err)

	// Accepting already rejected a and b, so nothing is left to cancel.
	cancelled, err := s.quoteRepo.CancelAllForJob(s.ctx, jobID, now)
	s.NoError(err)
	s.Empty(cancelled)

	otherJob := s.newID()
	c := s.createTestQuote(otherJob, s.newID())
	d := s.createTestQuote(otherJob, s.newID())

	cancelled, err = s.quoteRepo.CancelAllForJob(s.ctx, otherJob, now)
	s.NoError(err)
	s.Len(cancelled, 2)
	for _, quote := range cancelled {
		s.Equal(models.QuoteStatusCancelled, quote.Status)
		s.NotNil(quote.CancelledAt)
	}

	for _, id := range []string{c.ID, d.ID} {
		quote, err := s.quoteRepo.GetByID(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(models.QuoteStatusCancelled, quote.Status)
	}
}
