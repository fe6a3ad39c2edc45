package uowmock

import (
	"context"
	"errors"

	"landq-backend/internal/domain/parcel"
	"landq-backend/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn         func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinParcelTxFn   func(ctx context.Context, parcelID string, fn func(r uow.Repos, p *parcel.Parcel) error) error
	WithinRegistryTxFn func(ctx context.Context, fn func(r uow.Repos) error) error
}

// Passthrough runs every body directly against repos, handing p to parcel
// transactions whose id matches and parcel.ErrNotFound otherwise.
func Passthrough(repos uow.Repos, p *parcel.Parcel) *UoW {
	run := func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) }
	return &UoW{
		WithinTxFn:         run,
		WithinRegistryTxFn: run,
		WithinParcelTxFn: func(_ context.Context, parcelID string, fn func(uow.Repos, *parcel.Parcel) error) error {
			if p == nil || p.ParcelID != parcelID {
				return parcel.ErrNotFound
			}
			cp := *p
			return fn(repos, &cp)
		},
	}
}

// Convenience fluent setters
func New() *UoW { return &UoW{} }
func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinParcelTx(fn func(context.Context, string, func(uow.Repos, *parcel.Parcel) error) error) *UoW {
	m.WithinParcelTxFn = fn
	return m
}
func (m *UoW) WithWithinRegistryTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinRegistryTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinParcelTx(ctx context.Context, parcelID string, fn func(r uow.Repos, p *parcel.Parcel) error) error {
	if m.WithinParcelTxFn != nil {
		return m.WithinParcelTxFn(ctx, parcelID, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinRegistryTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinRegistryTxFn != nil {
		return m.WithinRegistryTxFn(ctx, fn)
	}
	return errUnimplemented
}
