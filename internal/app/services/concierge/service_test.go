package concierge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reva/internal/app/policies"
	domainlistings "reva/internal/domain/listings"
)

type modelMock struct {
	mock.Mock
}

func (m *modelMock) Generate(ctx context.Context, req policies.GenerateRequest) (policies.GenerateResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(policies.GenerateResponse), args.Error(1)
}

type catalogMock struct {
	mock.Mock
}

func (m *catalogMock) Find(ctx context.Context, c domainlistings.SearchCriteria) ([]*domainlistings.Listing, error) {
	args := m.Called(ctx, c)
	items, _ := args.Get(0).([]*domainlistings.Listing)
	return items, args.Error(1)
}

func withTools(req policies.GenerateRequest) bool { return len(req.Tools) == 1 }
func withResult(req policies.GenerateRequest) bool {
	last := req.Turns[len(req.Turns)-1]
	return len(req.Tools) == 0 && last.Result != nil && last.Result.Name == searchTool
}

func TestReply_Unconfigured(t *testing.T) {
	s := &Service{}

	assert.Equal(t, ReplyUnconfigured, s.Reply(context.Background(), "hi", nil).Text)
}

func TestReply_PlainText(t *testing.T) {
	model := new(modelMock)
	model.On("Generate", mock.Anything, mock.MatchedBy(func(req policies.GenerateRequest) bool {
		return withTools(req) && len(req.Turns) == 3 &&
			req.Turns[0].Role == policies.TurnUser &&
			req.Turns[1].Role == policies.TurnModel &&
			req.Turns[2].Text == "Is Petra open in winter?"
	})).Return(policies.GenerateResponse{Text: "Yes, all year."}, nil).Once()
	s := &Service{Model: model}

	r := s.Reply(context.Background(), "  Is Petra open in winter? ", []policies.Turn{
		{Role: policies.TurnUser, Text: "hello"},
		{Role: "assistant", Text: "Welcome!"},
	})

	assert.Equal(t, "Yes, all year.", r.Text)
	assert.Empty(t, r.Listings)
	model.AssertExpectations(t)
}

func TestReply_ModelFailures(t *testing.T) {
	model := new(modelMock)
	model.On("Generate", mock.Anything, mock.Anything).Return(policies.GenerateResponse{}, errors.New("429")).Once()
	model.On("Generate", mock.Anything, mock.Anything).Return(policies.GenerateResponse{Text: "  "}, nil).Once()
	s := &Service{Model: model}

	assert.Equal(t, ReplyUnavailable, s.Reply(context.Background(), "hi", nil).Text)
	assert.Equal(t, ReplyEmpty, s.Reply(context.Background(), "hi", nil).Text)
}

func TestReply_SearchTool(t *testing.T) {
	camp, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID: "c1", Owner: "2", Name: "Desert Camp", Location: "Wadi Rum", NightlyPrice: 180, Capacity: 4,
	})
	require.NoError(t, err)
	catalog := new(catalogMock)
	catalog.On("Find", mock.Anything, domainlistings.SearchCriteria{Location: "Wadi Rum", MaxPrice: 200, MinGuests: 3}).
		Return([]*domainlistings.Listing{camp}, nil).Once()

	model := new(modelMock)
	model.On("Generate", mock.Anything, mock.MatchedBy(withTools)).Return(policies.GenerateResponse{
		Call: &policies.ToolCall{Name: searchTool, Args: map[string]any{"location": "Wadi Rum", "maxPrice": 199.5, "guests": 2.1}},
	}, nil).Once()
	model.On("Generate", mock.Anything, mock.MatchedBy(withResult)).
		Return(policies.GenerateResponse{Text: "Try Desert Camp at 180 JD."}, nil).Once()
	s := &Service{Model: model, Catalog: catalog}

	r := s.Reply(context.Background(), "camp in wadi rum for 3 under 200", nil)

	assert.Equal(t, "Try Desert Camp at 180 JD.", r.Text)
	require.Len(t, r.Listings, 1)
	assert.Equal(t, domainlistings.ListingID("c1"), r.Listings[0].ID)
	model.AssertExpectations(t)
	catalog.AssertExpectations(t)
}

func TestReply_SearchWithoutDescription(t *testing.T) {
	catalog := new(catalogMock)
	catalog.On("Find", mock.Anything, mock.Anything).Return([]*domainlistings.Listing{}, nil)
	model := new(modelMock)
	model.On("Generate", mock.Anything, mock.MatchedBy(withTools)).Return(policies.GenerateResponse{
		Call: &policies.ToolCall{Name: searchTool, Args: map[string]any{}},
	}, nil)
	model.On("Generate", mock.Anything, mock.MatchedBy(withResult)).Return(policies.GenerateResponse{}, nil)
	s := &Service{Model: model, Catalog: catalog}

	assert.Equal(t, ReplyUndescribed, s.Reply(context.Background(), "anything?", nil).Text)
}

func TestReply_CatalogFailure(t *testing.T) {
	catalog := new(catalogMock)
	catalog.On("Find", mock.Anything, mock.Anything).Return(nil, errors.New("down"))
	model := new(modelMock)
	model.On("Generate", mock.Anything, mock.Anything).Return(policies.GenerateResponse{
		Call: &policies.ToolCall{Name: searchTool},
	}, nil).Once()
	s := &Service{Model: model, Catalog: catalog}

	assert.Equal(t, ReplyUnavailable, s.Reply(context.Background(), "x", nil).Text)
	model.AssertExpectations(t)
}

func TestCriteriaFromArgs(t *testing.T) {
	c := criteriaFromArgs(map[string]any{"location": "Aqaba", "minPrice": 99.9, "maxPrice": 300, "guests": "four"})

	assert.Equal(t, domainlistings.SearchCriteria{Location: "Aqaba", MinPrice: 99, MaxPrice: 300}, c)
}
