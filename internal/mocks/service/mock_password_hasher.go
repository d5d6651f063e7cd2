package service

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockPasswordHasher is a mock type for the PasswordHasher type
type MockPasswordHasher struct {
	mock.Mock
}

type MockPasswordHasher_Expecter struct {
	mock *mock.Mock
}

func (_m *MockPasswordHasher) EXPECT() *MockPasswordHasher_Expecter {
	return &MockPasswordHasher_Expecter{mock: &_m.Mock}
}

// Hash provides a mock function with given fields: ctx, password
func (_m *MockPasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	ret := _m.Called(ctx, password)

	if len(ret) == 0 {
		panic("no return value specified for Hash")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string) (string, error)); ok {
		return rf(ctx, password)
	}

	return ret.String(0), ret.Error(1)
}

// MockPasswordHasher_Hash_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Hash'
type MockPasswordHasher_Hash_Call struct {
	*mock.Call
}

// Hash is a helper method to define mock.On call
func (_e *MockPasswordHasher_Expecter) Hash(ctx interface{}, password interface{}) *MockPasswordHasher_Hash_Call {
	return &MockPasswordHasher_Hash_Call{Call: _e.mock.On("Hash", ctx, password)}
}

func (_c *MockPasswordHasher_Hash_Call) Return(_a0 string, _a1 error) *MockPasswordHasher_Hash_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockPasswordHasher_Hash_Call) RunAndReturn(run func(context.Context, string) (string, error)) *MockPasswordHasher_Hash_Call {
	_c.Call.Return(run)
	return _c
}

// Verify provides a mock function with given fields: encoded, password
func (_m *MockPasswordHasher) Verify(encoded string, password string) (bool, error) {
	ret := _m.Called(encoded, password)

	if len(ret) == 0 {
		panic("no return value specified for Verify")
	}

	if rf, ok := ret.Get(0).(func(string, string) (bool, error)); ok {
		return rf(encoded, password)
	}

	return ret.Bool(0), ret.Error(1)
}

// MockPasswordHasher_Verify_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Verify'
type MockPasswordHasher_Verify_Call struct {
	*mock.Call
}

// Verify is a helper method to define mock.On call
func (_e *MockPasswordHasher_Expecter) Verify(encoded interface{}, password interface{}) *MockPasswordHasher_Verify_Call {
	return &MockPasswordHasher_Verify_Call{Call: _e.mock.On("Verify", encoded, password)}
}

func (_c *MockPasswordHasher_Verify_Call) Return(_a0 bool, _a1 error) *MockPasswordHasher_Verify_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// NeedsRehash provides a mock function with given fields: encoded
func (_m *MockPasswordHasher) NeedsRehash(encoded string) bool {
	ret := _m.Called(encoded)

	if len(ret) == 0 {
		panic("no return value specified for NeedsRehash")
	}

	return ret.Bool(0)
}

// MockPasswordHasher_NeedsRehash_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'NeedsRehash'
type MockPasswordHasher_NeedsRehash_Call struct {
	*mock.Call
}

// NeedsRehash is a helper method to define mock.On call
func (_e *MockPasswordHasher_Expecter) NeedsRehash(encoded interface{}) *MockPasswordHasher_NeedsRehash_Call {
	return &MockPasswordHasher_NeedsRehash_Call{Call: _e.mock.On("NeedsRehash", encoded)}
}

func (_c *MockPasswordHasher_NeedsRehash_Call) Return(_a0 bool) *MockPasswordHasher_NeedsRehash_Call {
	_c.Call.Return(_a0)
	return _c
}

// NewMockPasswordHasher creates a new instance of MockPasswordHasher. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
