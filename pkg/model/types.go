package model

import internalmodel "github.com/goliatone/go-easel/internal/model"

// FieldType re-exports the internal FieldType enumeration.
type FieldType = internalmodel.FieldType

const (
	FieldTypeString  = internalmodel.FieldTypeString
	FieldTypeInteger = internalmodel.FieldTypeInteger
	FieldTypeNumber  = internalmodel.FieldTypeNumber
	FieldTypeBoolean = internalmodel.FieldTypeBoolean
	FieldTypeArray   = internalmodel.FieldTypeArray
	FieldTypeObject  = internalmodel.FieldTypeObject
)

const (
	ValidationRuleMin       = internalmodel.ValidationRuleMin
	ValidationRuleMax       = internalmodel.ValidationRuleMax
	ValidationRuleStep      = internalmodel.ValidationRuleStep
	ValidationRuleMinLength = internalmodel.ValidationRuleMinLength
	ValidationRuleMaxLength = internalmodel.ValidationRuleMaxLength
	ValidationRulePattern   = internalmodel.ValidationRulePattern
)

type ValidationRule = internalmodel.ValidationRule
type Field = internalmodel.Field
type FormModel = internalmodel.FormModel

// WidgetKind re-exports the closed widget enumeration.
type WidgetKind = internalmodel.WidgetKind

const (
	WidgetUpload    = internalmodel.WidgetUpload
	WidgetRepeat    = internalmodel.WidgetRepeat
	WidgetSelect    = internalmodel.WidgetSelect
	WidgetImageSize = internalmodel.WidgetImageSize
	WidgetToggle    = internalmodel.WidgetToggle
	WidgetSlider    = internalmodel.WidgetSlider
	WidgetNumber    = internalmodel.WidgetNumber
	WidgetTextarea  = internalmodel.WidgetTextarea
	WidgetText      = internalmodel.WidgetText
)

// Group re-exports the form section enumeration.
type Group = internalmodel.Group

const (
	GroupMain     = internalmodel.GroupMain
	GroupAdvanced = internalmodel.GroupAdvanced
)

type Widget = internalmodel.Widget
type SizeInput = internalmodel.SizeInput
type SizeField = internalmodel.SizeField
