// Package secure keeps the directory client secret out of plain process
// memory between configuration loading and session establishment.
//
// The secret is sealed in a memguard enclave (encrypted at rest, mlocked
// where the platform allows) and only decrypted for the duration of a
// callback:
//
//	buf := secure.NewSecureString(cfg.Directory.ClientSecret)
//	defer buf.Destroy()
//
//	err := buf.WithString(func(secret string) error {
//	    cred, err = azidentity.NewClientSecretCredential(tenant, client, strings.Clone(secret), nil)
//	    return err
//	})
//
// The callback's string points into the locked buffer and is wiped when
// WithString returns. Anything that keeps it must clone it first.
//
// Call memguard.Purge (via Purge) once at process exit.
package secure
