package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
)

const assetRecordJSON = `{
	"_id": "rec-1",
	"status": "updated",
	"asset_id": "A-100",
	"asset_primary_name": {"current": "B", "previous": "A"},
	"asset_modality": {"current": "ANTIBODY", "previous": null},
	"asset_is_oncology": {"current": true, "previous": false},
	"asset_target": {"current": 42},
	"_action": "delete",
	"_isDeleted": true
}`

func assetSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := SchemaFor(CategoryAsset)
	require.NoError(t, err)
	return s
}

func TestValueJSON(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`"x"`), &v))
	s, ok := v.Str()
	require.True(t, ok)
	require.Equal(t, "x", s)

	require.NoError(t, json.Unmarshal([]byte(`false`), &v))
	b, ok := v.Flag()
	require.True(t, ok)
	require.False(t, b)

	require.NoError(t, json.Unmarshal([]byte(`null`), &v))
	require.True(t, v.IsNull())

	require.NoError(t, json.Unmarshal([]byte(`2024`), &v))
	require.Equal(t, String("2024"), v)

	require.Error(t, json.Unmarshal([]byte(`["a"]`), &v))

	out, err := json.Marshal(Bool(true))
	require.NoError(t, err)
	require.JSONEq(t, `true`, string(out))
}

func TestDecodeRecordIgnoresIncomingDisposition(t *testing.T) {
	rec, err := DecodeRecord(assetSchema(t), json.RawMessage(assetRecordJSON))
	require.NoError(t, err)

	require.Equal(t, "rec-1", rec.Key)
	require.Equal(t, RecordStatusUpdated, rec.Status)
	require.NotNil(t, rec.EntityID)
	require.Equal(t, "A-100", *rec.EntityID)
	require.Equal(t, DispositionNone, rec.Disposition())
	require.False(t, rec.IsDeleted())
	require.Equal(t, "B", rec.Title())

	target, ok := rec.Field("target")
	require.True(t, ok)
	require.Equal(t, String("42"), target.Current)
	require.True(t, target.Previous.IsNull())

	missing, ok := rec.Field("ownership_type")
	require.True(t, ok)
	require.True(t, missing.Current.IsNull())
}

func TestDecodeRecordRejectsUnknownStatus(t *testing.T) {
	_, err := DecodeRecord(assetSchema(t), json.RawMessage(`{"_id":"x","status":"archived"}`))
	require.Error(t, err)
	require.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestCatalystRefsPreservedVerbatim(t *testing.T) {
	schema, err := SchemaFor(CategoryCatalyst)
	require.NoError(t, err)
	rec, err := DecodeRecord(schema, json.RawMessage(`{
		"_id": "c1", "status": "new", "catalyst_id": null,
		"asset_id": "A-1", "indication_id": ["I-1", "I-2"],
		"catalyst_name": {"current": "Readout", "previous": null}
	}`))
	require.NoError(t, err)
	require.Nil(t, rec.EntityID)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, []interface{}{"I-1", "I-2"}, decoded["indication_id"])
	require.Nil(t, decoded["catalyst_id"])
	require.Nil(t, decoded["_action"])
	require.Equal(t, false, decoded["_isDeleted"])
}

func TestEditFieldKeepsPrevious(t *testing.T) {
	rec, err := DecodeRecord(assetSchema(t), json.RawMessage(assetRecordJSON))
	require.NoError(t, err)

	require.NoError(t, rec.EditField("primary_name", String("C")))
	require.NoError(t, rec.EditField("asset_primary_name", String("D")))

	diff, ok := rec.Field("primary_name")
	require.True(t, ok)
	assert.Equal(t, String("D"), diff.Current)
	assert.Equal(t, String("A"), diff.Previous)
	assert.True(t, diff.Changed(rec.Status))
}

func TestEditFieldRules(t *testing.T) {
	rec, err := DecodeRecord(assetSchema(t), json.RawMessage(assetRecordJSON))
	require.NoError(t, err)

	err = rec.EditField("indication_name", String("x"))
	require.True(t, errors.Is(err, appErrors.ErrInvalidField))

	err = rec.EditField("is_oncology", String("yes"))
	require.True(t, errors.Is(err, appErrors.ErrInvalidFieldValue))

	err = rec.EditField("modality", Bool(true))
	require.True(t, errors.Is(err, appErrors.ErrInvalidFieldValue))

	// enum membership is display-only
	require.NoError(t, rec.EditField("modality", String("PLASMID")))
	diff, _ := rec.Field("modality")
	spec, _ := rec.Schema().Lookup("modality")
	require.False(t, spec.Recognized(diff.Current))
	require.True(t, spec.Recognized(String(UnknownEnumValue)))

	require.NoError(t, rec.EditField("target", Null()))
}

func TestEditFieldBlockedWhileDeleted(t *testing.T) {
	rec, err := DecodeRecord(assetSchema(t), json.RawMessage(assetRecordJSON))
	require.NoError(t, err)
	require.NoError(t, rec.SetDisposition(DispositionDelete))
	before := rec.Clone()

	err = rec.EditField("primary_name", String("Z"))
	require.True(t, errors.Is(err, appErrors.ErrRecordDeleted))
	require.Equal(t, before, rec)

	require.NoError(t, rec.SetDisposition(DispositionApprove))
	require.NoError(t, rec.EditField("primary_name", String("Z")))
}

func TestSetDispositionKeepsDeletionFlagInStep(t *testing.T) {
	rec := NewRecordState(assetSchema(t), "r", RecordStatusNew)
	for _, d := range []Disposition{DispositionDelete, DispositionApprove, DispositionDelete, DispositionReject, DispositionNone} {
		require.NoError(t, rec.SetDisposition(d))
		require.Equal(t, d == DispositionDelete, rec.IsDeleted(), "disposition %s", d)
		require.Equal(t, rec.IsDeleted(), rec.MarkedForDeletion())
	}
	require.Error(t, rec.SetDisposition(Disposition("archive")))
	require.Equal(t, DispositionNone, rec.Disposition())
}

func TestParseDisposition(t *testing.T) {
	for raw, want := range map[string]Disposition{
		"":         DispositionNone,
		"none":     DispositionNone,
		"null":     DispositionNone,
		"Approve":  DispositionApprove,
		" reject ": DispositionReject,
		"DELETE":   DispositionDelete,
	} {
		got, err := ParseDisposition(raw)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseDisposition("skip")
	require.True(t, errors.Is(err, appErrors.ErrInvalidDisposition))
}

func TestSubmittedRecordMarksDeletion(t *testing.T) {
	rec := NewRecordState(assetSchema(t), "r", RecordStatusNew)
	require.NoError(t, rec.SetDisposition(DispositionReject))

	out, err := json.Marshal(SubmittedRecord{rec})
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, false, decoded["_markedForDeletion"])
	require.Equal(t, "reject", decoded["_action"])

	require.NoError(t, rec.SetDisposition(DispositionDelete))
	out, err = json.Marshal(SubmittedRecord{rec})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, true, decoded["_markedForDeletion"])
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Indication ")
	require.NoError(t, err)
	require.Equal(t, CategoryIndication, c)

	_, err = ParseCategory("trial")
	require.True(t, errors.Is(err, appErrors.ErrUnknownCategory))
}

func TestSchemasEndWithUnknownSentinel(t *testing.T) {
	for _, c := range Categories {
		schema, err := SchemaFor(c)
		require.NoError(t, err)
		for _, f := range schema.Fields {
			if f.Kind != FieldKindEnum {
				continue
			}
			require.Equal(t, UnknownEnumValue, f.Options[len(f.Options)-1], "%s.%s", c, f.Name)
		}
	}
}

func TestDecodeRecordRejectsUnknownPrefixedKey(t *testing.T) {
	_, err := DecodeRecord(assetSchema(t), json.RawMessage(`{
		"_id": "r0", "status": "new", "asset_id": "A",
		"asset_primary_nmae": {"current": "B", "previous": null}
	}`))
	require.Error(t, err)
	require.True(t, errors.Is(err, appErrors.ErrValidation))
	require.Contains(t, err.Error(), "asset_primary_nmae")

	schema, err := SchemaFor(CategoryCatalyst)
	require.NoError(t, err)
	_, err = DecodeRecord(schema, json.RawMessage(`{
		"_id": "c1", "status": "new", "catalyst_id": "C-1",
		"asset_id": "A-1", "indication_id": "I-1", "source": "10-K"
	}`))
	require.NoError(t, err)
}

func TestSubmittedRecordOmitsAbsentFields(t *testing.T) {
	rec, err := DecodeRecord(assetSchema(t), json.RawMessage(`{
		"_id": "r0", "status": "updated", "asset_id": "A",
		"asset_primary_name": {"current": "B", "previous": "A"},
		"asset_is_active": {"current": null, "previous": true}
	}`))
	require.NoError(t, err)

	out, err := json.Marshal(SubmittedRecord{rec})
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Contains(t, decoded, "asset_primary_name")
	require.Contains(t, decoded, "asset_is_active")
	require.NotContains(t, decoded, "asset_target")
	require.NotContains(t, decoded, "asset_modality")

	require.NoError(t, rec.EditField("target", String("PD-1")))
	out, err = json.Marshal(SubmittedRecord{rec.Clone()})
	require.NoError(t, err)
	decoded = nil
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, map[string]interface{}{"current": "PD-1", "previous": nil}, decoded["asset_target"])
	require.NotContains(t, decoded, "asset_modality")
}
