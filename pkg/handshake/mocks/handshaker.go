// Package mocks holds hand-written testify mocks in the mockery expecter
// style.
package mocks

import (
	mock "github.com/stretchr/testify/mock"

	handshake "github.com/halyard-rpc/halyard/pkg/handshake"
)

// MockHandshaker is a mock type for the Handshaker type
type MockHandshaker struct {
	mock.Mock
}

type MockHandshaker_Expecter struct {
	mock *mock.Mock
}

func (_m *MockHandshaker) EXPECT() *MockHandshaker_Expecter {
	return &MockHandshaker_Expecter{mock: &_m.Mock}
}

// Name provides a mock function with no fields
func (_m *MockHandshaker) Name() string {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Name")
	}

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0
}

// MockHandshaker_Name_Call is a *mock.Call wrapping Name
type MockHandshaker_Name_Call struct {
	*mock.Call
}

// Name is a helper method to define mock.On calls for Name
func (_e *MockHandshaker_Expecter) Name() *MockHandshaker_Name_Call {
	return &MockHandshaker_Name_Call{Call: _e.mock.On("Name")}
}

func (_c *MockHandshaker_Name_Call) Run(run func()) *MockHandshaker_Name_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run()
	})
	return _c
}

func (_c *MockHandshaker_Name_Call) Return(_a0 string) *MockHandshaker_Name_Call {
	_c.Call.Return(_a0)
	return _c
}

// DoHandshake provides a mock function with given fields: args, done
func (_m *MockHandshaker) DoHandshake(args *handshake.Args, done handshake.DoneFunc) {
	_m.Called(args, done)
}

// MockHandshaker_DoHandshake_Call is a *mock.Call wrapping DoHandshake
type MockHandshaker_DoHandshake_Call struct {
	*mock.Call
}

// DoHandshake is a helper method to define mock.On calls for DoHandshake
func (_e *MockHandshaker_Expecter) DoHandshake(args interface{}, done interface{}) *MockHandshaker_DoHandshake_Call {
	return &MockHandshaker_DoHandshake_Call{Call: _e.mock.On("DoHandshake", args, done)}
}

func (_c *MockHandshaker_DoHandshake_Call) Run(run func(args *handshake.Args, done handshake.DoneFunc)) *MockHandshaker_DoHandshake_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(*handshake.Args), args[1].(handshake.DoneFunc))
	})
	return _c
}

func (_c *MockHandshaker_DoHandshake_Call) Return() *MockHandshaker_DoHandshake_Call {
	_c.Call.Return()
	return _c
}

// Shutdown provides a mock function with given fields: err
func (_m *MockHandshaker) Shutdown(err error) {
	_m.Called(err)
}

// MockHandshaker_Shutdown_Call is a *mock.Call wrapping Shutdown
type MockHandshaker_Shutdown_Call struct {
	*mock.Call
}

// Shutdown is a helper method to define mock.On calls for Shutdown
func (_e *MockHandshaker_Expecter) Shutdown(err interface{}) *MockHandshaker_Shutdown_Call {
	return &MockHandshaker_Shutdown_Call{Call: _e.mock.On("Shutdown", err)}
}

func (_c *MockHandshaker_Shutdown_Call) Run(run func(err error)) *MockHandshaker_Shutdown_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args.Error(0))
	})
	return _c
}

func (_c *MockHandshaker_Shutdown_Call) Return() *MockHandshaker_Shutdown_Call {
	_c.Call.Return()
	return _c
}

// NewMockHandshaker creates a new instance of MockHandshaker. It also
// registers a testing interface on the mock and a cleanup function to assert
// the mocks expectations.
func NewMockHandshaker(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockHandshaker {
	m := &MockHandshaker{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
