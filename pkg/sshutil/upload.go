package sshutil

import (
	"fmt"
	"io"
	"path"

	"github.com/pkg/sftp"
)

// Upload copies r to remotePath over SFTP, creating parent directories
// as needed. Relative paths resolve against the remote user's home, the
// SFTP server's working directory.
func (c *client) Upload(r io.Reader, remotePath string) error {
	sftpClient, err := sftp.NewClient(c.conn)
	if err != nil {
		return fmt.Errorf("open sftp session: %w", err)
	}
	defer sftpClient.Close()

	if dir := path.Dir(remotePath); dir != "." && dir != "/" {
		if err := sftpClient.MkdirAll(dir); err != nil {
			return fmt.Errorf("create remote directory %s: %w", dir, err)
		}
	}

	f, err := sftpClient.Create(remotePath)
	if err != nil {
		return fmt.Errorf("create remote file %s: %w", remotePath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("write remote file %s: %w", remotePath, err)
	}
	return nil
}
