// Copyright (c) 2023 The KBase Project and its Contributors
// Copyright (c) 2023 Cohere Consulting, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package auth

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fernet/fernet-go"

	"github.com/kbase/rwp/config"
)

// a login credential for a workspace platform deployment
type Credential struct {
	// the API origin of the platform
	URL string
	// username and password exchanged for a session token
	Username, Password string
}

// This type maps profile names to platform login credentials, so that the
// admin tool doesn't need plaintext passwords in its config file. The
// credentials live in an encrypted file that is maintained manually.
type CredentialStore struct {
	CredentialForProfile map[string]Credential
}

// reads a fernet-encrypted credential file using the secret in the service
// configuration
func ReadCredentialFile(credentialFilePath string) (map[string]Credential, error) {
	keys, err := fernet.DecodeKeys(config.Service.Secret)
	if err != nil {
		return nil, fmt.Errorf("Couldn't decode the configured secret: %s", err.Error())
	}

	encryptedText, err := os.ReadFile(credentialFilePath)
	if err != nil {
		return nil, err
	}

	// a TTL of zero means credentials don't expire
	plainText := fernet.VerifyAndDecrypt(encryptedText, 0, keys)
	if plainText == nil {
		return nil, errors.New("Couldn't decrypt the credential file (wrong secret?)")
	}

	// the plaintext content is a tab-delimited file with records like so:
	// Profile\tURL\tUsername\tPassword
	reader := csv.NewReader(bytes.NewReader(plainText))
	reader.Comma = '\t'
	reader.Comment = '#'
	reader.FieldsPerRecord = 4

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	credentials := make(map[string]Credential)
	for _, record := range records {
		credentials[record[0]] = Credential{
			URL:      record[1],
			Username: record[2],
			Password: record[3],
		}
	}

	return credentials, nil
}

func NewCredentialStore() (*CredentialStore, error) {
	var store CredentialStore
	var err error
	filePath := filepath.Join(config.Service.DataDirectory, "credentials.dat")
	store.CredentialForProfile, err = ReadCredentialFile(filePath)
	if err != nil {
		return nil, err
	}

	return &store, nil
}

// given a profile name, returns a Credential or an error
func (store *CredentialStore) Lookup(profile string) (Credential, error) {
	if credential, found := store.CredentialForProfile[profile]; found {
		return credential, nil
	}
	return Credential{}, fmt.Errorf("No credential found for profile '%s'", profile)
}
