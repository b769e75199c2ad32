package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Vishal2827/pern-stack/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, id int64, in model.ProductInput) (*model.Product, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testProduct() *model.Product {
	return &model.Product{
		ID:        1,
		Name:      "Widget",
		Price:     decimal.RequireFromString("9.99"),
		Image:     "http://x/1.png",
		CreatedAt: time.Now(),
	}
}

func TestProductService_List(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tests := []struct {
		name        string
		mockReturn  []model.Product
		mockError   error
		expectError bool
	}{
		{
			name:       "Success",
			mockReturn: []model.Product{*testProduct()},
		},
		{
			name:       "Empty table",
			mockReturn: []model.Product{},
		},
		{
			name:        "Repository error",
			mockError:   errors.New("database error"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(mockRepo, logger)

			mockRepo.On("List", ctx).Return(tt.mockReturn, tt.mockError)

			products, err := service.List(ctx)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, products)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.mockReturn, products)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProductService_Create(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	valid := model.ProductInput{Name: "Widget", Price: price("9.99"), Image: "http://x/1.png"}

	tests := []struct {
		name        string
		input       model.ProductInput
		expectRepo  bool
		mockReturn  *model.Product
		mockError   error
		expectedErr error
		expectError bool
	}{
		{
			name:       "Success",
			input:      valid,
			expectRepo: true,
			mockReturn: testProduct(),
		},
		{
			name:        "Missing name",
			input:       model.ProductInput{Price: price("9.99"), Image: "img"},
			expectedErr: model.ErrMissingField,
			expectError: true,
		},
		{
			name:       "Whitespace name is accepted",
			input:      model.ProductInput{Name: "   ", Price: price("9.99"), Image: "img"},
			expectRepo: true,
			mockReturn: testProduct(),
		},
		{
			name:        "Missing price",
			input:       model.ProductInput{Name: "Widget", Image: "img"},
			expectedErr: model.ErrMissingField,
			expectError: true,
		},
		{
			name:        "Zero price",
			input:       model.ProductInput{Name: "Widget", Price: price("0"), Image: "img"},
			expectedErr: model.ErrMissingField,
			expectError: true,
		},
		{
			name:        "Missing image",
			input:       model.ProductInput{Name: "Widget", Price: price("9.99")},
			expectedErr: model.ErrMissingField,
			expectError: true,
		},
		{
			name:        "Repository error",
			input:       valid,
			expectRepo:  true,
			mockError:   errors.New("database error"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(mockRepo, logger)

			if tt.expectRepo {
				mockRepo.On("Create", ctx, tt.input).Return(tt.mockReturn, tt.mockError)
			}

			product, err := service.Create(ctx, tt.input)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, product)
				if tt.expectedErr != nil {
					assert.Equal(t, tt.expectedErr, err)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.mockReturn, product)
			}

			mockRepo.AssertExpectations(t)
			if !tt.expectRepo {
				mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestProductService_GetByID(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tests := []struct {
		name        string
		mockReturn  *model.Product
		mockError   error
		expectedErr error
		expectError bool
	}{
		{
			name:       "Success",
			mockReturn: testProduct(),
		},
		{
			name:        "Product not found",
			mockError:   model.ErrProductNotFound,
			expectedErr: model.ErrProductNotFound,
			expectError: true,
		},
		{
			name:        "Repository error",
			mockError:   errors.New("database error"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(mockRepo, logger)

			mockRepo.On("GetByID", ctx, int64(1)).Return(tt.mockReturn, tt.mockError)

			product, err := service.GetByID(ctx, 1)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, product)
				if tt.expectedErr != nil {
					assert.Equal(t, tt.expectedErr, err)
				} else {
					assert.NotErrorIs(t, err, model.ErrProductNotFound)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.mockReturn, product)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProductService_Update(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	valid := model.ProductInput{Name: "Gadget", Price: price("5.00"), Image: "g.png"}

	tests := []struct {
		name        string
		input       model.ProductInput
		expectRepo  bool
		mockReturn  *model.Product
		mockError   error
		expectedErr error
		expectError bool
	}{
		{
			name:       "Success",
			input:      valid,
			expectRepo: true,
			mockReturn: testProduct(),
		},
		{
			name:        "Partial body rejected",
			input:       model.ProductInput{Name: "Gadget"},
			expectedErr: model.ErrMissingField,
			expectError: true,
		},
		{
			name:        "Product not found",
			input:       valid,
			expectRepo:  true,
			mockError:   model.ErrProductNotFound,
			expectedErr: model.ErrProductNotFound,
			expectError: true,
		},
		{
			name:        "Repository error",
			input:       valid,
			expectRepo:  true,
			mockError:   errors.New("database error"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(mockRepo, logger)

			if tt.expectRepo {
				mockRepo.On("Update", ctx, int64(1), tt.input).Return(tt.mockReturn, tt.mockError)
			}

			product, err := service.Update(ctx, 1, tt.input)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, product)
				if tt.expectedErr != nil {
					assert.Equal(t, tt.expectedErr, err)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.mockReturn, product)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProductService_Delete(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tests := []struct {
		name        string
		mockReturn  *model.Product
		mockError   error
		expectedErr error
		expectError bool
	}{
		{
			name:       "Success",
			mockReturn: testProduct(),
		},
		{
			name:        "Product not found",
			mockError:   model.ErrProductNotFound,
			expectedErr: model.ErrProductNotFound,
			expectError: true,
		},
		{
			name:        "Repository error",
			mockError:   errors.New("database error"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(mockRepo, logger)

			mockRepo.On("Delete", ctx, int64(1)).Return(tt.mockReturn, tt.mockError)

			product, err := service.Delete(ctx, 1)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, product)
				if tt.expectedErr != nil {
					assert.Equal(t, tt.expectedErr, err)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.mockReturn, product)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}
