// Package channel handles fluorescence channel identity: parsing the
// Ex_<excitation>_Em_<emission> token out of stage directory names and mapping
// emission wavelengths to display colors for the viewer.
package channel
