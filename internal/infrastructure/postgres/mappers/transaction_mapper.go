package mappers

import (
	"encoding/json"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/postgres/models"
	"gorm.io/datatypes"
)

func ToDomainTransaction(model *models.TransactionModel) *domain.Transaction {
	return &domain.Transaction{
		TxnID:       model.TxnID,
		GatewayID:   deref(model.GatewayID),
		Amount:      model.Amount,
		ProductInfo: model.ProductInfo,
		Payer: domain.Payer{
			FirstName: model.FirstName,
			LastName:  model.LastName,
			Email:     model.Email,
			Phone:     model.Phone,
			Address1:  model.Address1,
			Address2:  model.Address2,
			City:      model.City,
			State:     model.State,
			Country:   model.Country,
			Zipcode:   model.Zipcode,
		},
		UDF:          [5]string{model.UDF1, model.UDF2, model.UDF3, model.UDF4, model.UDF5},
		Status:       model.Status,
		PaymentMode:  model.PaymentMode,
		BankRef:      model.BankRef,
		ErrorCode:    model.ErrorCode,
		ErrorMessage: model.ErrorMessage,
		Signature:    model.Signature,
		RawRequest:   toRaw(model.RawRequest),
		RawResponse:  toRaw(model.RawResponse),
		InitiatedAt:  model.InitiatedAt,
		CompletedAt:  model.CompletedAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func ToGORMTransaction(tx *domain.Transaction) *models.TransactionModel {
	return &models.TransactionModel{
		TxnID:        tx.TxnID,
		GatewayID:    ref(tx.GatewayID),
		Amount:       tx.Amount,
		ProductInfo:  tx.ProductInfo,
		FirstName:    tx.Payer.FirstName,
		LastName:     tx.Payer.LastName,
		Email:        tx.Payer.Email,
		Phone:        tx.Payer.Phone,
		Address1:     tx.Payer.Address1,
		Address2:     tx.Payer.Address2,
		City:         tx.Payer.City,
		State:        tx.Payer.State,
		Country:      tx.Payer.Country,
		Zipcode:      tx.Payer.Zipcode,
		UDF1:         tx.UDF[0],
		UDF2:         tx.UDF[1],
		UDF3:         tx.UDF[2],
		UDF4:         tx.UDF[3],
		UDF5:         tx.UDF[4],
		Status:       tx.Status,
		PaymentMode:  tx.PaymentMode,
		BankRef:      tx.BankRef,
		ErrorCode:    tx.ErrorCode,
		ErrorMessage: tx.ErrorMessage,
		Signature:    tx.Signature,
		RawRequest:   ToJSON(tx.RawRequest),
		RawResponse:  ToJSON(tx.RawResponse),
		InitiatedAt:  tx.InitiatedAt,
		CompletedAt:  tx.CompletedAt,
		CreatedAt:    tx.CreatedAt,
		UpdatedAt:    tx.UpdatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ToJSON keeps NULL for absent payloads instead of storing "null".
func ToJSON(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	return datatypes.JSON(raw)
}

func toRaw(j datatypes.JSON) json.RawMessage {
	if len(j) == 0 {
		return nil
	}
	return json.RawMessage(j)
}
