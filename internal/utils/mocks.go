package utils

import (
	"net/http"

	"github.com/stretchr/testify/mock"
)

type MockHTTPClient struct {
	mock.Mock
}

var _ HTTPClient = (*MockHTTPClient)(nil)

func (s *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := s.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}
