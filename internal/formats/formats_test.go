/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func TestDetect(t *testing.T) {
	assert.Equal(t, FormatFDX, Detect("pilot.fdx", nil))
	assert.Equal(t, FormatTrelby, Detect("pilot.fdx.trelby", nil))
	assert.Equal(t, FormatTrelby, Detect("PILOT.TRELBY", nil))
	assert.Equal(t, FormatText, Detect("pilot.txt", []byte("<FinalDraft>")))
	assert.Equal(t, FormatFDX, Detect("upload", []byte(`<?xml version="1.0"?><FinalDraft DocumentType="Script">`)))
	assert.Equal(t, FormatTrelby, Detect("upload", []byte("#Version 3\n#Start-Script\n.=INT. A")))
	assert.Equal(t, FormatText, Detect("upload", []byte("INT. HOUSE - DAY")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" TXT ")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("docx")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDecodeNormalizes(t *testing.T) {
	text, err := Decode([]byte("\xef\xbb\xbfINT. CAFÉ - DAY\r\nJOHN\rHi\n"))
	require.NoError(t, err)
	assert.Equal(t, "INT. CAFÉ - DAY\nJOHN\nHi\n", text)
}

func TestDecodeUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte("EXT. PARK - NIGHT\nRain."))
	require.NoError(t, err)

	text, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "EXT. PARK - NIGHT\nRain.", text)
}

func TestDecodeRejectsInvalidUTF8(t *testing.T) {
	_, err := Decode([]byte("INT. CAF\xc9 - DAY\n"))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = Decode([]byte("\xef\xbb\xbfEXT. \xff\n"))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestImportText(t *testing.T) {
	_, err := Import(FormatText, []byte("  \n "))
	require.ErrorIs(t, err, ErrInvalidInput)

	text, err := Import(FormatText, []byte("INT. A - DAY\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "INT. A - DAY\n", text)
}

func TestLoadParsesImportedText(t *testing.T) {
	fdx := `<FinalDraft><Content>
<Paragraph Type="Scene Heading"><Text>int. lab - night</Text></Paragraph>
<Paragraph Type="Character"><Text>Ada</Text></Paragraph>
<Paragraph Type="Dialogue"><Text>It works.</Text></Paragraph>
</Content></FinalDraft>`
	sp, err := Load("lab.fdx", []byte(fdx))
	require.NoError(t, err)
	require.Len(t, sp.Sequences, 1)
	assert.Equal(t, []string{"LAB"}, sp.Sequences[0].Location)
	assert.Equal(t, []string{"ADA"}, sp.Characters())

	_, err = Load("empty.fdx", nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}
