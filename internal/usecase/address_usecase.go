package usecase

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AddressUsecase struct {
	addresses repo.AddressRepository
	phones    repo.PhoneNumberRepository
}

func NewAddressUsecase(addresses repo.AddressRepository, phones repo.PhoneNumberRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses, phones: phones}
}

type AddressInput struct {
	Recipient  string `json:"recipient"`
	Street     string `json:"street"`
	Complement string `json:"complement"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

type PhoneNumberInput struct {
	Number string `json:"number"`
	Label  string `json:"label"`
}

func (in *AddressInput) normalize() error {
	in.Recipient = strings.TrimSpace(in.Recipient)
	in.Street = strings.TrimSpace(in.Street)
	in.Complement = strings.TrimSpace(in.Complement)
	in.City = strings.TrimSpace(in.City)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Country = strings.TrimSpace(in.Country)

	if in.Recipient == "" || in.Street == "" || in.City == "" || in.PostalCode == "" || in.Country == "" {
		return NewHTTPError(http.StatusBadRequest, "recipient, street, city, postal_code, country are required")
	}
	if len(in.PostalCode) > 20 || len(in.Country) > 100 {
		return NewHTTPError(http.StatusBadRequest, "invalid address")
	}
	return nil
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]model.Address, error) {
	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

func (u *AddressUsecase) Get(ctx context.Context, userID, addressID int64) (model.Address, error) {
	return u.owned(ctx, userID, addressID)
}

func (u *AddressUsecase) Create(ctx context.Context, userID int64, in AddressInput) (model.Address, error) {
	if err := in.normalize(); err != nil {
		return model.Address{}, err
	}

	//1件目は自動でデフォルト
	existing, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return model.Address{}, dbError(err)
	}

	created, err := u.addresses.Create(ctx, model.Address{
		UserID:     userID,
		Recipient:  in.Recipient,
		Street:     in.Street,
		Complement: in.Complement,
		City:       in.City,
		PostalCode: in.PostalCode,
		Country:    in.Country,
	})
	if err != nil {
		return model.Address{}, dbError(err)
	}

	if in.IsDefault || len(existing) == 0 {
		if err := u.addresses.SetDefault(ctx, userID, created.ID); err != nil {
			return model.Address{}, dbError(err)
		}
		created.IsDefault = true
	}
	return created, nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID, addressID int64, in AddressInput) (model.Address, error) {
	if err := in.normalize(); err != nil {
		return model.Address{}, err
	}
	a, err := u.owned(ctx, userID, addressID)
	if err != nil {
		return model.Address{}, err
	}

	a.Recipient = in.Recipient
	a.Street = in.Street
	a.Complement = in.Complement
	a.City = in.City
	a.PostalCode = in.PostalCode
	a.Country = in.Country
	if err := u.addresses.Update(ctx, a); err != nil {
		return model.Address{}, dbError(err)
	}

	if in.IsDefault && !a.IsDefault {
		if err := u.addresses.SetDefault(ctx, userID, a.ID); err != nil {
			return model.Address{}, dbError(err)
		}
		a.IsDefault = true
	}
	return a, nil
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID, addressID int64) (model.Address, error) {
	a, err := u.owned(ctx, userID, addressID)
	if err != nil {
		return model.Address{}, err
	}
	if err := u.addresses.SetDefault(ctx, userID, a.ID); err != nil {
		return model.Address{}, dbError(err)
	}
	a.IsDefault = true
	return a, nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID, addressID int64) error {
	if _, err := u.owned(ctx, userID, addressID); err != nil {
		return err
	}
	if err := u.addresses.Delete(ctx, addressID); err != nil {
		return notFoundOr(err, "address not found")
	}
	return nil
}

// 他人の住所は存在しない扱い
func (u *AddressUsecase) owned(ctx context.Context, userID, addressID int64) (model.Address, error) {
	if addressID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := u.addresses.FindByID(ctx, addressID)
	if err != nil {
		return model.Address{}, notFoundOr(err, "address not found")
	}
	if a.UserID != userID {
		return model.Address{}, NewHTTPError(http.StatusNotFound, "address not found")
	}
	return a, nil
}

// ===== phone numbers =====

func (u *AddressUsecase) ListPhones(ctx context.Context, userID int64) ([]model.PhoneNumber, error) {
	list, err := u.phones.ListByUserID(ctx, userID)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

func (u *AddressUsecase) CreatePhone(ctx context.Context, userID int64, in PhoneNumberInput) (model.PhoneNumber, error) {
	number, err := normalizePhone(in.Number)
	if err != nil {
		return model.PhoneNumber{}, err
	}
	p, err := u.phones.Create(ctx, model.PhoneNumber{
		UserID: userID,
		Number: number,
		Label:  strings.TrimSpace(in.Label),
	})
	if err != nil {
		return model.PhoneNumber{}, dbError(err)
	}
	return p, nil
}

func (u *AddressUsecase) UpdatePhone(ctx context.Context, userID, phoneID int64, in PhoneNumberInput) (model.PhoneNumber, error) {
	number, err := normalizePhone(in.Number)
	if err != nil {
		return model.PhoneNumber{}, err
	}
	p, err := u.ownedPhone(ctx, userID, phoneID)
	if err != nil {
		return model.PhoneNumber{}, err
	}
	p.Number = number
	p.Label = strings.TrimSpace(in.Label)
	if err := u.phones.Update(ctx, p); err != nil {
		return model.PhoneNumber{}, dbError(err)
	}
	return p, nil
}

func (u *AddressUsecase) DeletePhone(ctx context.Context, userID, phoneID int64) error {
	if _, err := u.ownedPhone(ctx, userID, phoneID); err != nil {
		return err
	}
	if err := u.phones.Delete(ctx, phoneID); err != nil {
		return notFoundOr(err, "phone number not found")
	}
	return nil
}

func (u *AddressUsecase) ownedPhone(ctx context.Context, userID, phoneID int64) (model.PhoneNumber, error) {
	if phoneID <= 0 {
		return model.PhoneNumber{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := u.phones.FindByID(ctx, phoneID)
	if err != nil {
		return model.PhoneNumber{}, notFoundOr(err, "phone number not found")
	}
	if p.UserID != userID {
		return model.PhoneNumber{}, NewHTTPError(http.StatusNotFound, "phone number not found")
	}
	return p, nil
}

const msgInvalidPhone = "invalid phone number"

// 数字と + - 空白だけ許可
func normalizePhone(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 30 {
		return "", NewHTTPError(http.StatusBadRequest, msgInvalidPhone)
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')':
		default:
			return "", NewHTTPError(http.StatusBadRequest, msgInvalidPhone)
		}
	}
	if digits < 6 {
		return "", NewHTTPError(http.StatusBadRequest, msgInvalidPhone)
	}
	return s, nil
}
