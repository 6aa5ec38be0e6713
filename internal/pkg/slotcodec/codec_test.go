package slotcodec_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/fadepin/internal/core/domain"
	"github.com/samirrijal/fadepin/internal/pkg/slotcodec"
)

func sampleMarkers() []domain.Marker {
	now := time.UnixMilli(1_700_000_000_123)
	return []domain.Marker{
		domain.NewMarker("a", 50.4501, 30.5234, domain.MarkerBlue, now, 30*time.Minute),
		domain.NewMarker("b", -33.8688, 151.2093, domain.MarkerGreen, now.Add(time.Second), 30*time.Minute),
		domain.NewMarker("c", 0.000001, -0.000001, domain.MarkerSplit, now.Add(2*time.Second), 30*time.Minute),
	}
}

func TestCodecs_PreserveFieldsAndOrder(t *testing.T) {
	for _, name := range []string{"json", "cbor"} {
		t.Run(name, func(t *testing.T) {
			codec, err := slotcodec.New(name)
			require.NoError(t, err)
			assert.Equal(t, name, codec.Name())

			in := sampleMarkers()
			data, err := codec.Encode(in)
			require.NoError(t, err)

			out, err := codec.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestJSON_AcceptsRecordsWithoutExpiresAt(t *testing.T) {
	data := []byte(`[{"id":"x","lat":1.5,"lng":2.5,"type":"green","createdAt":1000}]`)

	out, err := slotcodec.JSON{}.Decode(data)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.MarkerGreen, out[0].Type)
	assert.Equal(t, int64(0), out[0].ExpiresAt)
}

func TestDecode_SkipsUnreadableRecords(t *testing.T) {
	in := []domain.Marker{
		domain.NewMarker("keep", 1, 2, domain.MarkerBlue, time.UnixMilli(1000), time.Minute),
	}
	for _, name := range []string{"json", "cbor"} {
		t.Run(name, func(t *testing.T) {
			codec, err := slotcodec.New(name)
			require.NoError(t, err)

			// Splice in records a newer or broken writer could leave behind.
			data, err := codec.Encode(in)
			require.NoError(t, err)
			var raw []map[string]any
			if name == "json" {
				require.NoError(t, json.Unmarshal(data, &raw))
			} else {
				require.NoError(t, cbor.Unmarshal(data, &raw))
			}
			raw = append(raw,
				map[string]any{"id": "future", "lat": 1, "lng": 2, "type": "red", "createdAt": 1000},
				map[string]any{"lat": 1, "lng": 2, "type": "green", "createdAt": 1000},
			)
			if name == "json" {
				data, err = json.Marshal(raw)
			} else {
				data, err = cbor.Marshal(raw)
			}
			require.NoError(t, err)

			out, err := codec.Decode(data)
			assert.Equal(t, in, out)

			var partial *slotcodec.PartialError
			require.ErrorAs(t, err, &partial)
			require.Len(t, partial.Skipped, 2)
			assert.Equal(t, 1, partial.Skipped[0].Index)
			assert.Equal(t, "future", partial.Skipped[0].ID)
			assert.Equal(t, 2, partial.Skipped[1].Index)
		})
	}
}

func TestDecode_Garbage(t *testing.T) {
	cb, err := slotcodec.NewCBOR()
	require.NoError(t, err)

	_, err = slotcodec.JSON{}.Decode([]byte("{not json"))
	assert.Error(t, err)
	_, err = cb.Decode([]byte{0xff, 0x00, 0x13})
	assert.Error(t, err)
}

func TestNew_UnknownCodec(t *testing.T) {
	_, err := slotcodec.New("xml")
	assert.Error(t, err)
}
