//go:build darwin

package launcher

// Detect returns the Starter for this host: the open(1) based AppStarter.
func Detect(appPath string) Starter {
	return NewAppStarter(appPath)
}
